package screens

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// layouts accepted when decoding stored dates, most specific first
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Date is a calendar value as stored by the screens. Decoding is lenient:
// anything that is not a recognizable timestamp yields the zero Date, which
// reads as "not set".
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

// ParseDate interprets a stored timestamp in local time. Date-only values
// are local midnight.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Date{Time: t.In(time.Local)}, true
		}
	}
	return Date{}, false
}

// Set reports whether the date holds a value.
func (d Date) Set() bool { return !d.IsZero() }

// MarshalJSON writes RFC 3339, or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// UnmarshalJSON accepts RFC 3339 strings, YYYY-MM-DD, or epoch milliseconds.
// Unrecognized input leaves the date unset instead of failing the record.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if parsed, ok := ParseDate(s); ok {
			*d = parsed
		}
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err == nil && ms > 0 {
		*d = Date{Time: time.UnixMilli(int64(ms))}
	}
	return nil
}
