// Package reminders turns the document expirations kept in the Profile
// record into desktop notifications fired a few days before each due date.
package reminders

import (
	"fmt"
	"slices"
	"time"

	"github.com/aschepis/backscratcher/autocare/dates"
	"github.com/aschepis/backscratcher/autocare/screens"
)

// DefaultTitle is the notification title used when none is configured.
const DefaultTitle = "Vencimiento de documento"

// Document identifies a tracked vehicle document.
type Document string

const (
	SOAT    Document = "soat"
	Tecnico Document = "tecnico"
)

// Label is the name used in notification bodies.
func (d Document) Label() string {
	if d == Tecnico {
		return "Técnico Mecánica"
	}
	return "SOAT"
}

// AllowedDaysBefore are the lead times a reminder may be configured with.
var AllowedDaysBefore = []int{0, 1, 3, 7}

// Reminder is one notification for one document expiry.
type Reminder struct {
	Document   Document
	DueDate    time.Time
	DaysBefore int
	At         time.Time
}

// Body renders the notification text, e.g. "Tu SOAT vence el 01/12/2025".
func (r Reminder) Body() string {
	return fmt.Sprintf("Tu %s vence el %s", r.Document.Label(), dates.FormatShort(r.DueDate))
}

// DueKey is the stored form of the due date used to remember sent reminders.
func (r Reminder) DueKey() string {
	return r.DueDate.Format(time.DateOnly)
}

// Plan returns the reminders still to fire after now. Each document with a
// parseable due date and a supported lead time fires at hour:00 local time,
// DaysBefore days ahead of the due date. Triggers at or before now are
// dropped.
func Plan(extras screens.LegacyProfileExtras, now time.Time, hour int) []Reminder {
	var out []Reminder
	for _, r := range candidates(extras, now, hour) {
		if r.At.After(now) {
			out = append(out, r)
		}
	}
	return out
}

// Due returns the reminders whose trigger has passed while the document
// itself has not yet expired, so a poller that was not running at the exact
// trigger time still delivers them.
func Due(extras screens.LegacyProfileExtras, now time.Time, hour int) []Reminder {
	today := dates.StartOfDay(now)
	var out []Reminder
	for _, r := range candidates(extras, now, hour) {
		if !r.At.After(now) && !r.DueDate.Before(today) {
			out = append(out, r)
		}
	}
	return out
}

func candidates(extras screens.LegacyProfileExtras, now time.Time, hour int) []Reminder {
	var out []Reminder
	if r, ok := build(SOAT, extras.SOAT, extras.SOATReminderDaysBefore, now, hour); ok {
		out = append(out, r)
	}
	if r, ok := build(Tecnico, extras.Tecnico, extras.TecnicoReminderDaysBefore, now, hour); ok {
		out = append(out, r)
	}
	return out
}

func build(doc Document, raw string, daysBefore *int, now time.Time, hour int) (Reminder, bool) {
	if raw == "" || daysBefore == nil || !slices.Contains(AllowedDaysBefore, *daysBefore) {
		return Reminder{}, false
	}
	due, ok := dates.Parse(raw, now)
	if !ok {
		return Reminder{}, false
	}
	at := time.Date(due.Year(), due.Month(), due.Day()-*daysBefore, hour, 0, 0, 0, due.Location())
	return Reminder{Document: doc, DueDate: due, DaysBefore: *daysBefore, At: at}, true
}
