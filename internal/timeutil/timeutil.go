// Package timeutil provides timezone-aware civil date arithmetic for rule
// evaluation and notification formatting.
package timeutil

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// dateLayouts are the cell formats accepted by ParseDate, tried in order.
// Spreadsheet exports yield display strings, so both slash and dash forms
// appear in the wild, with or without a time part.
var dateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"01-02-06",
	"1/2/06 15:04",
	"1/2/06",
}

// FormatDate is the display layout for matched dates.
const FormatDate = "2006/01/02"

// FormatDateTime is the display layout for send timestamps.
const FormatDateTime = "2006/01/02 15:04:05"

// Location resolves an IANA timezone name, e.g. "Asia/Tokyo".
func Location(timezone string) (*time.Location, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// TodayIn returns midnight of the current civil date in the given timezone.
func TodayIn(timezone string) (time.Time, error) {
	loc, err := Location(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return Midnight(time.Now().In(loc)), nil
}

// Midnight truncates t to 00:00:00 wall-clock time in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of days from a to b, positive when b is in
// the future. Both inputs are truncated to local midnight first and a sub-day
// residual (e.g. a DST-shifted day) rounds up, toward "more days remaining".
func DaysBetween(a, b time.Time) int {
	diff := Midnight(b).Sub(Midnight(a))
	return int(math.Ceil(diff.Hours() / 24))
}

// ParseDate parses a raw cell value as a date in the given location. The
// second return value reports whether the value was a valid date; empty and
// malformed cells return false rather than an error since skipping them is
// the expected path during matching.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValidDate reports whether the raw cell value parses as a date.
func IsValidDate(value string) bool {
	_, ok := ParseDate(value, time.UTC)
	return ok
}

// Format renders t as yyyy/MM/dd in the given timezone. A zero time or an
// unresolvable timezone yields an empty string; the failure is logged, not
// raised, so a bad cell degrades to a blank field instead of aborting the run.
func Format(t time.Time, timezone string, log *slog.Logger) string {
	if t.IsZero() {
		return ""
	}
	loc, err := Location(timezone)
	if err != nil {
		if log != nil {
			log.Warn("date format failed", "timezone", timezone, "error", err)
		}
		return ""
	}
	return t.In(loc).Format(FormatDate)
}
