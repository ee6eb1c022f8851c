package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidnight(t *testing.T) {
	loc, err := Location("Asia/Tokyo")
	require.NoError(t, err)

	in := time.Date(2024, 3, 1, 15, 4, 5, 123, loc)
	out := Midnight(in)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), out)
	assert.Equal(t, loc, out.Location())
}

func TestDaysBetween(t *testing.T) {
	loc, err := Location("Asia/Tokyo")
	require.NoError(t, err)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	tests := []struct {
		name     string
		a, b     time.Time
		expected int
	}{
		{"same day", day(2024, 1, 10), day(2024, 1, 10), 0},
		{"three days ahead", day(2024, 1, 10), day(2024, 1, 13), 3},
		{"past date", day(2024, 1, 10), day(2024, 1, 8), -2},
		{"time of day ignored", day(2024, 1, 10), time.Date(2024, 1, 13, 23, 59, 0, 0, loc), 3},
		{"across month boundary", day(2024, 2, 28), day(2024, 3, 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		value string
		valid bool
	}{
		{"2024/03/02", true},
		{"2024-03-02", true},
		{"2024/3/2", true},
		{"2024-03-02 10:30:00", true},
		{"2024-03-02T10:30:00Z", true},
		{"", false},
		{"   ", false},
		{"not a date", false},
		{"未完了", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			parsed, ok := ParseDate(tt.value, loc)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, 2024, parsed.Year())
				assert.Equal(t, time.March, parsed.Month())
				assert.Equal(t, 2, parsed.Day())
			}
		})
	}
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("2024/01/13"))
	assert.False(t, IsValidDate(""))
	assert.False(t, IsValidDate("tbd"))
}

func TestFormat(t *testing.T) {
	d := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024/03/02", Format(d, "UTC", nil))

	// Zero time and bad timezone degrade to empty, never panic.
	assert.Equal(t, "", Format(time.Time{}, "UTC", nil))
	assert.Equal(t, "", Format(d, "Not/AZone", nil))
}
