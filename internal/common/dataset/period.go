package dataset

import (
	"fmt"
	"strings"
	"time"
)

// periodLayouts are tried in order; month-first wins for ambiguous numeric dates.
var periodLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/01",
	"01/2006",
	"1/2006",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"January 2006",
	"Jan 2006",
	"January, 2006",
	"Jan, 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January-2006",
	"Jan-2006",
	"Jan-06",
	"2006",
}

// ParsePeriod parses a period or month specifier. Month names match case-insensitively.
func ParsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty period")
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized period %q", s)
}

// SameMonth reports whether a and b fall in the same calendar year and month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// PeriodLess orders periods chronologically when both parse. Parseable periods
// sort before unparseable ones, which fall back to string order.
func PeriodLess(a, b string) bool {
	ta, errA := ParsePeriod(a)
	tb, errB := ParsePeriod(b)
	switch {
	case errA == nil && errB == nil:
		if ta.Equal(tb) {
			return a < b
		}
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
