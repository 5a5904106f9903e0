// Package assistant implements the rule-based maintenance assistant: it reads
// the screens' stored state, classifies Spanish utterances and composes
// replies about the user's own data.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/dates"
	"github.com/aschepis/backscratcher/autocare/screens"
)

// StateReader is the storage the session refreshes from.
type StateReader interface {
	ReadScreenStates(ctx context.Context) (screens.State, error)
	// ReadLegacyProfileExtras returns nil when no legacy record exists.
	ReadLegacyProfileExtras(ctx context.Context) (*screens.LegacyProfileExtras, error)
	ReadActionHistory(ctx context.Context) ([]screens.HistoryEntry, error)
}

const (
	defaultWarningDays     = 30
	defaultResponseHistory = 5
)

// defaultDocuments are assumed when a profile is hydrated from legacy data
// without a document list of its own.
var defaultDocuments = []string{"SOAT", "Técnico Mecánica"}

// Session is the assistant's memory for one conversation: the cached screen
// snapshot, the cached action history and the recently given replies.
// Create it with NewSession, call Refresh when the conversation regains
// focus, and Close it when the conversation ends.
type Session struct {
	reader      StateReader
	now         func() time.Time
	warningDays int
	logger      zerolog.Logger

	mu      sync.Mutex
	state   screens.State
	history []screens.HistoryEntry
	recent  *recentResponses
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWarningDays sets how many days ahead an expiry is reported as upcoming.
func WithWarningDays(days int) Option {
	return func(s *Session) {
		if days > 0 {
			s.warningDays = days
		}
	}
}

// WithResponseHistory sets how many past replies are kept for repeat detection.
func WithResponseHistory(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.recent = newRecentResponses(n)
		}
	}
}

// NewSession creates a session reading from reader. The cache starts empty;
// call Refresh to load it.
func NewSession(reader StateReader, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		reader:      reader,
		now:         time.Now,
		warningDays: defaultWarningDays,
		logger:      logger.With().Str("component", "assistant").Logger(),
		recent:      newRecentResponses(defaultResponseHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh replaces the cached snapshot and history with the stored ones.
// Every read fails soft: an unreadable key is cached as its empty value and
// the error is logged and returned joined with the others, so callers may
// ignore it.
func (s *Session) Refresh(ctx context.Context) error {
	var errs []error

	st, err := s.reader.ReadScreenStates(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read screen states, using empty state")
		errs = append(errs, err)
		st = screens.State{}
	}

	// Older installs keep document expirations only in the legacy Profile record.
	if st.Profile == nil || st.Profile.DocumentsExpiry == nil {
		extras, err := s.reader.ReadLegacyProfileExtras(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to read legacy profile extras, skipping hydration")
			errs = append(errs, err)
		} else if extras != nil {
			st.Profile = s.hydrateProfile(st.Profile, *extras)
		}
	}

	history, err := s.reader.ReadActionHistory(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read action history, using empty history")
		errs = append(errs, err)
		history = nil
	}

	s.mu.Lock()
	s.state = st
	s.history = history
	s.mu.Unlock()

	s.logger.Debug().Int("historyEntries", len(history)).Int("errors", len(errs)).Msg("Refreshed from storage")
	return errors.Join(errs...)
}

func (s *Session) hydrateProfile(current *screens.ProfileState, extras screens.LegacyProfileExtras) *screens.ProfileState {
	now := s.now()
	loose := func(v string) screens.Date {
		if v == "" {
			return screens.Date{}
		}
		d, ok := dates.Parse(v, now)
		if !ok {
			s.logger.Debug().Str("value", v).Msg("Unparseable legacy expiry date")
			return screens.Date{}
		}
		return screens.NewDate(d)
	}

	var prof screens.ProfileState
	if current != nil {
		prof = *current
		if prof.Documents == nil {
			prof.Documents = append([]string(nil), defaultDocuments...)
		}
	} else {
		prof.Documents = []string{}
	}
	prof.DocumentsExpiry = &screens.DocumentsExpiry{
		SOAT:         loose(extras.SOAT),
		Tecnico:      loose(extras.Tecnico),
		PicoPlacaDay: extras.PicoYPlaca,
	}
	return &prof
}

// Analyze summarizes one screen from the cached snapshot.
func (s *Session) Analyze(id screens.ID) Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer().Analyze(id)
}

// Snapshot returns the cached screen state.
func (s *Session) Snapshot() screens.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RecentResponses returns the replies currently held for repeat detection,
// oldest first.
func (s *Session) RecentResponses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.snapshot()
}

// Close discards the cached state. A closed session answers with the
// generic reply.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state = screens.State{}
	s.history = nil
	s.recent = newRecentResponses(s.recent.capacity)
}

// Answer refreshes the cache and replies to utterance. It never fails:
// internal faults degrade to a generic reply.
func (s *Session) Answer(ctx context.Context, utterance string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Recovered while composing reply")
			reply = genericReply
		}
	}()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.logger.Warn().Msg("Answer called on closed session")
		return genericReply
	}

	// Errors are already logged; the reply is built from whatever was readable.
	_ = s.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	reply = s.compose(utterance)
	s.logger.Debug().Str("utterance", utterance).Int("replyLength", len(reply)).Msg("Composed reply")
	return reply
}

// analyzer must be called with mu held.
func (s *Session) analyzer() *Analyzer {
	return NewAnalyzer(s.state, s.now(), s.warningDays)
}
