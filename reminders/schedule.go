package reminders

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule yields the next poll time after a given instant.
type Schedule interface {
	Next(time.Time) time.Time
}

// ParseSchedule accepts a cron expression ("0 */15 * * * *", "*/15 * * * *",
// "@hourly", "@every 1m") or a Go duration ("15m", "1h30m").
func ParseSchedule(expr string) (Schedule, error) {
	if expr == "" {
		return nil, fmt.Errorf("schedule string is empty")
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(expr); err == nil {
		return sched, nil
	}

	d, err := time.ParseDuration(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule as cron expression or duration: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("schedule duration must be positive, got %s", d)
	}
	return cron.Every(d), nil
}
