package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/screens"
)

const defaultHistoryLimit = 100

// Repository maps the screen records onto the key-value store.
type Repository struct {
	store        *Store
	historyLimit int
	now          func() time.Time
	logger       zerolog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithHistoryLimit caps how many action-history entries are retained.
func WithHistoryLimit(n int) RepositoryOption {
	return func(r *Repository) {
		if n > 0 {
			r.historyLimit = n
		}
	}
}

// WithClock overrides the time source used to stamp history entries.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRepository creates a Repository over store.
func NewRepository(store *Store, logger zerolog.Logger, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:        store,
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		logger:       logger.With().Str("component", "screen_repository").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadScreenStates returns the full snapshot. A missing key yields an empty
// State; a screen whose record is malformed is logged and left nil.
func (r *Repository) ReadScreenStates(ctx context.Context) (screens.State, error) {
	raw, ok, err := r.store.Get(ctx, KeyScreenStates)
	if err != nil || !ok {
		return screens.State{}, err
	}
	st, failed, err := screens.DecodeState([]byte(raw))
	if err != nil {
		return screens.State{}, err
	}
	for _, f := range failed {
		r.logger.Warn().Str("screen", string(f.Screen)).Err(f.Err).Msg("Dropping undecodable screen record")
	}
	return st, nil
}

// ReadLegacyProfileExtras returns the legacy Profile record, or nil when it
// was never written.
func (r *Repository) ReadLegacyProfileExtras(ctx context.Context) (*screens.LegacyProfileExtras, error) {
	raw, ok, err := r.store.Get(ctx, KeyProfileExtras)
	if err != nil || !ok {
		return nil, err
	}
	ex, err := screens.DecodeLegacyExtras([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// ReadActionHistory returns the chronological action log.
func (r *Repository) ReadActionHistory(ctx context.Context) ([]screens.HistoryEntry, error) {
	raw, ok, err := r.store.Get(ctx, KeyActionHistory)
	if err != nil || !ok {
		return nil, err
	}
	return screens.DecodeHistory([]byte(raw))
}

// WriteScreenStates replaces the full snapshot.
func (r *Repository) WriteScreenStates(ctx context.Context, st screens.State) error {
	return r.putJSON(ctx, KeyScreenStates, st)
}

// WriteLegacyProfileExtras replaces the legacy Profile record.
func (r *Repository) WriteLegacyProfileExtras(ctx context.Context, ex screens.LegacyProfileExtras) error {
	return r.putJSON(ctx, KeyProfileExtras, ex)
}

// AppendAction records a user-visible action and trims the log to the
// configured limit, oldest first.
func (r *Repository) AppendAction(ctx context.Context, screen screens.ID, action string, data any) (screens.HistoryEntry, error) {
	entries, err := r.ReadActionHistory(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Existing action history unreadable, starting a new log")
		entries = nil
	}

	entry := screens.HistoryEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Screen:    string(screen),
		Timestamp: screens.NewDate(r.now()),
	}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return screens.HistoryEntry{}, fmt.Errorf("marshal action payload: %w", err)
		}
		entry.Data = payload
	}

	entries = append(entries, entry)
	if len(entries) > r.historyLimit {
		entries = entries[len(entries)-r.historyLimit:]
	}
	if err := r.putJSON(ctx, KeyActionHistory, entries); err != nil {
		return screens.HistoryEntry{}, err
	}
	return entry, nil
}

// Snapshot is the export format used to seed or back up the store.
type Snapshot struct {
	ScreenStates  *screens.State               `json:"screenStates,omitempty"`
	ProfileExtras *screens.LegacyProfileExtras `json:"profileExtras,omitempty"`
	History       []screens.HistoryEntry       `json:"history,omitempty"`
}

// Import writes every section present in snap. Absent sections are left untouched.
func (r *Repository) Import(ctx context.Context, snap Snapshot) error {
	if snap.ScreenStates != nil {
		if err := r.WriteScreenStates(ctx, *snap.ScreenStates); err != nil {
			return err
		}
	}
	if snap.ProfileExtras != nil {
		if err := r.WriteLegacyProfileExtras(ctx, *snap.ProfileExtras); err != nil {
			return err
		}
	}
	if snap.History != nil {
		if err := r.putJSON(ctx, KeyActionHistory, snap.History); err != nil {
			return err
		}
	}
	r.logger.Info().
		Bool("screenStates", snap.ScreenStates != nil).
		Bool("profileExtras", snap.ProfileExtras != nil).
		Int("history", len(snap.History)).
		Msg("Imported snapshot")
	return nil
}

func (r *Repository) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.store.Set(ctx, key, string(b))
}

// Reset deletes every stored record and reports how many keys were removed.
func (r *Repository) Reset(ctx context.Context) (int, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := r.store.Delete(ctx, k); err != nil {
			return 0, err
		}
	}
	r.logger.Info().Strs("keys", keys).Msg("Cleared stored records")
	return len(keys), nil
}
