// Package dates parses free-form Spanish date expressions and formats
// calendar dates the way the assistant reads them back to the user.
package dates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Months holds the Spanish month names, January first.
var Months = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Weekdays holds the Spanish weekday names indexed like time.Weekday (Sunday first).
var Weekdays = [7]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// unaccented spellings people type on phone keyboards
var weekdayAliases = []struct {
	name string
	day  time.Weekday
}{
	{"miercoles", time.Wednesday},
	{"sabado", time.Saturday},
}

var (
	dayAfterTomorrowRe = regexp.MustCompile(`\bpasado\s+mañana\b`)
	todayRe            = regexp.MustCompile(`\bhoy\b`)
	tomorrowRe         = regexp.MustCompile(`\bmañana\b`)
	dayFirstRe         = regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})\b`)
	yearFirstRe        = regexp.MustCompile(`\b(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})\b`)
	textualRe          = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(` + strings.Join(Months[:], "|") + `)(?:\s+de\s+(\d{4}))?\b`)
)

// Parse resolves the first date expression found in text relative to now.
// The boolean is false when no expression resolves to a valid calendar date.
// Results are midnight in now's location.
func Parse(text string, now time.Time) (time.Time, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return time.Time{}, false
	}
	today := StartOfDay(now)

	// "pasado mañana" also contains "mañana", so it goes first.
	switch {
	case dayAfterTomorrowRe.MatchString(t):
		return today.AddDate(0, 0, 2), true
	case todayRe.MatchString(t):
		return today, true
	case tomorrowRe.MatchString(t):
		return today.AddDate(0, 0, 1), true
	}

	if wd, ok := findWeekday(t); ok {
		diff := (int(wd) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, diff), true
	}

	if m := dayFirstRe.FindStringSubmatch(t); m != nil {
		if d, ok := build(atoi(m[3]), atoi(m[2]), atoi(m[1]), now.Location()); ok {
			return d, true
		}
	}

	if m := yearFirstRe.FindStringSubmatch(t); m != nil {
		if d, ok := build(atoi(m[1]), atoi(m[2]), atoi(m[3]), now.Location()); ok {
			return d, true
		}
	}

	if m := textualRe.FindStringSubmatch(t); m != nil {
		year := now.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		if month := monthIndex(m[2]); month > 0 {
			if d, ok := build(year, month, atoi(m[1]), now.Location()); ok {
				return d, true
			}
		}
	}

	return time.Time{}, false
}

// findWeekday scans the weekday names in Sunday-first order and reports the
// first one contained anywhere in t. Containment is plain substring matching.
func findWeekday(t string) (time.Weekday, bool) {
	for i, name := range Weekdays {
		if strings.Contains(t, name) {
			return time.Weekday(i), true
		}
	}
	for _, alias := range weekdayAliases {
		if strings.Contains(t, alias.name) {
			return alias.day, true
		}
	}
	return 0, false
}

func monthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i + 1
		}
	}
	return 0
}

// build returns the date only when year/month/day name a real calendar day;
// time.Date would otherwise normalize 31/02 into March.
func build(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysUntil returns the ceiling of the fractional number of days from now to t.
// A date earlier today yields 0, yesterday yields -1.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// FormatLong renders "15 de octubre de 2025".
func FormatLong(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), Months[t.Month()-1], t.Year())
}

// FormatShort renders "15/10/2025".
func FormatShort(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
