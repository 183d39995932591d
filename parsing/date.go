package parsing

import (
	"strings"
	"time"
)

// DateLayout is the day/month/year layout used by the case exports.
const DateLayout = "02/01/2006"

var dateLayouts = []string{
	DateLayout,
	"2/1/2006",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a civil date and returns it at UTC midnight.
// Unparsable or placeholder values ("", "-") yield nil, never a sentinel date.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d := CivilDate(t)
			return &d
		}
	}
	return nil
}

// CivilDate drops the clock and zone, keeping the calendar day as seen in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (both civil dates).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// FormatDate renders a civil date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
