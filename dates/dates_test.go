package dates

import (
	"testing"
	"time"
)

// Wednesday, 15 October 2025 at 10:30 local time.
var refNow = time.Date(2025, time.October, 15, 10, 30, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "hoy", input: "hoy", want: day(2025, time.October, 15), wantOK: true},
		{name: "mañana", input: "Daily mañana", want: day(2025, time.October, 16), wantOK: true},
		{name: "pasado mañana", input: "agenda pasado mañana", want: day(2025, time.October, 17), wantOK: true},
		{name: "weekday today counts", input: "el miércoles", want: day(2025, time.October, 15), wantOK: true},
		{name: "weekday ahead", input: "citas del viernes", want: day(2025, time.October, 17), wantOK: true},
		{name: "weekday wraps", input: "lunes", want: day(2025, time.October, 20), wantOK: true},
		{name: "unaccented weekday", input: "sabado", want: day(2025, time.October, 18), wantOK: true},
		{name: "day first slash", input: "daily 15/10/2025", want: day(2025, time.October, 15), wantOK: true},
		{name: "day first dash", input: "3-11-2025", want: day(2025, time.November, 3), wantOK: true},
		{name: "year first", input: "agenda 2025-12-20", want: day(2025, time.December, 20), wantOK: true},
		{name: "year first slash", input: "2026/1/5", want: day(2026, time.January, 5), wantOK: true},
		{name: "textual with year", input: "15 de octubre de 2025", want: day(2025, time.October, 15), wantOK: true},
		{name: "textual default year", input: "agenda del 3 de noviembre", want: day(2025, time.November, 3), wantOK: true},
		{name: "invalid day first", input: "31/02/2025", wantOK: false},
		{name: "invalid month", input: "10/13/2025", wantOK: false},
		{name: "invalid textual", input: "30 de febrero", wantOK: false},
		{name: "no date", input: "resumen general", wantOK: false},
		{name: "empty", input: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input, refNow)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseEveryValidDayFirstDate(t *testing.T) {
	start := day(2024, time.January, 1)
	for d := start; d.Year() < 2026; d = d.AddDate(0, 0, 1) {
		input := FormatShort(d)
		got, ok := Parse(input, refNow)
		if !ok || !got.Equal(d) {
			t.Fatalf("Parse(%q) = %v, %v; want %v", input, got, ok, d)
		}
	}
}

func TestParseWeekdaysStayWithinAWeek(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		now := refNow.AddDate(0, 0, offset)
		for i, name := range Weekdays {
			got, ok := Parse(name, now)
			if !ok {
				t.Fatalf("Parse(%q) found no date", name)
			}
			if got.Weekday() != time.Weekday(i) {
				t.Fatalf("Parse(%q) weekday = %v, want %v", name, got.Weekday(), time.Weekday(i))
			}
			ahead := int(got.Sub(StartOfDay(now)).Hours() / 24)
			if ahead < 0 || ahead > 6 {
				t.Fatalf("Parse(%q) is %d days from today", name, ahead)
			}
		}
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
		want int
	}{
		{name: "five days out", when: refNow.Add(5 * 24 * time.Hour), want: 5},
		{name: "later this week at midnight", when: day(2025, time.October, 18), want: 3},
		{name: "today midnight", when: day(2025, time.October, 15), want: 0},
		{name: "yesterday", when: day(2025, time.October, 14), want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.when, refNow); got != tt.want {
				t.Fatalf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	d := day(2025, time.October, 5)
	if got := FormatLong(d); got != "5 de octubre de 2025" {
		t.Fatalf("FormatLong = %q", got)
	}
	if got := FormatShort(d); got != "5/10/2025" {
		t.Fatalf("FormatShort = %q", got)
	}
}
