package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/screens"
)

const defaultHour = 9

// Source is the storage the scheduler reads reminder settings from and logs
// sent reminders to.
type Source interface {
	ReadLegacyProfileExtras(ctx context.Context) (*screens.LegacyProfileExtras, error)
	AppendAction(ctx context.Context, screen screens.ID, action string, data any) (screens.HistoryEntry, error)
}

// Scheduler periodically checks the Profile record and sends any reminder
// whose trigger time has arrived. Each reminder is sent at most once.
type Scheduler struct {
	db       *sql.DB
	source   Source
	notifier Notifier
	schedule Schedule
	hour     int
	title    string
	now      func() time.Time
	logger   zerolog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithHour sets the local hour at which reminders fire.
func WithHour(hour int) SchedulerOption {
	return func(s *Scheduler) {
		if hour >= 0 && hour < 24 {
			s.hour = hour
		}
	}
}

// WithTitle overrides the notification title.
func WithTitle(title string) SchedulerOption {
	return func(s *Scheduler) {
		if title != "" {
			s.title = title
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a scheduler polling on schedule. db must carry the
// reminders_sent table.
func NewScheduler(db *sql.DB, source Source, notifier Notifier, schedule Schedule, logger zerolog.Logger, opts ...SchedulerOption) (*Scheduler, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule cannot be nil")
	}
	s := &Scheduler{
		db:       db,
		source:   source,
		notifier: notifier,
		schedule: schedule,
		hour:     defaultHour,
		title:    DefaultTitle,
		now:      time.Now,
		logger:   logger.With().Str("component", "reminders").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start checks once immediately and then on every tick of the schedule until
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Int("hour", s.hour).Msg("Starting reminder scheduler")

	if _, err := s.Check(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Initial reminder check failed")
	}
	s.logUpcoming(ctx)

	for {
		now := s.now()
		next := s.schedule.Next(now)
		if !next.After(now) {
			s.logger.Error().Time("now", now).Time("next", next).Msg("Reminder schedule has no future tick, stopping scheduler")
			return
		}
		s.logger.Debug().Time("next", next).Msg("Waiting for next reminder check")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Reminder scheduler stopped: context cancelled")
			return
		case <-timer.C:
			if _, err := s.Check(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Reminder check failed")
			}
		}
	}
}

// Upcoming lists the reminders configured on the Profile record whose
// trigger time is still ahead.
func (s *Scheduler) Upcoming(ctx context.Context) ([]Reminder, error) {
	extras, err := s.source.ReadLegacyProfileExtras(ctx)
	if err != nil {
		return nil, fmt.Errorf("read profile extras: %w", err)
	}
	if extras == nil {
		return nil, nil
	}
	return Plan(*extras, s.now(), s.hour), nil
}

func (s *Scheduler) logUpcoming(ctx context.Context) {
	upcoming, err := s.Upcoming(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list upcoming reminders")
		return
	}
	for _, r := range upcoming {
		s.logger.Info().
			Str("document", string(r.Document)).
			Str("due", r.DueKey()).
			Time("at", r.At).
			Msg("Reminder scheduled")
	}
}

// Check sends every due reminder not sent before and returns how many were
// sent. A failed notification is logged and retried on the next check.
func (s *Scheduler) Check(ctx context.Context) (int, error) {
	extras, err := s.source.ReadLegacyProfileExtras(ctx)
	if err != nil {
		return 0, fmt.Errorf("read profile extras: %w", err)
	}
	if extras == nil {
		return 0, nil
	}

	now := s.now()
	sent := 0
	for _, r := range Due(*extras, now, s.hour) {
		done, err := s.alreadySent(ctx, r)
		if err != nil {
			return sent, err
		}
		if done {
			continue
		}

		log := s.logger.With().Str("document", string(r.Document)).Str("due", r.DueKey()).Int("daysBefore", r.DaysBefore).Logger()
		if err := s.notifier.Notify(s.title, r.Body()); err != nil {
			log.Warn().Err(err).Msg("Failed to send reminder notification")
			continue
		}
		if err := s.markSent(ctx, r, now); err != nil {
			return sent, err
		}
		sent++
		log.Info().Msg("Reminder sent")

		payload := map[string]any{"doc": string(r.Document), "dueISO": r.DueKey(), "daysBefore": r.DaysBefore}
		if _, err := s.source.AppendAction(ctx, screens.Profile, "Recordatorio enviado: "+r.Document.Label(), payload); err != nil {
			log.Warn().Err(err).Msg("Failed to record reminder in action history")
		}
	}
	return sent, nil
}

func (s *Scheduler) alreadySent(ctx context.Context, r Reminder) (bool, error) {
	query, args, err := sq.Select("1").
		From("reminders_sent").
		Where(sq.Eq{"document": string(r.Document), "due_date": r.DueKey(), "days_before": r.DaysBefore}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query sent reminders: %w", err)
	}
	return true, nil
}

func (s *Scheduler) markSent(ctx context.Context, r Reminder, at time.Time) error {
	query, args, err := sq.Insert("reminders_sent").
		Columns("document", "due_date", "days_before", "sent_at").
		Values(string(r.Document), r.DueKey(), r.DaysBefore, at.Unix()).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record sent reminder: %w", err)
	}
	return nil
}
