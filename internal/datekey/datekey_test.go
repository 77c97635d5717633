package datekey_test

import (
	"testing"
	"time"

	"church-attendance-backend/internal/datekey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyZeroPadding(t *testing.T) {
	d := time.Date(2025, time.March, 7, 15, 30, 0, 0, time.Local)
	assert.Equal(t, "2025-03-07", datekey.Key(d))
}

func TestKeyUsesLocalCalendarDay(t *testing.T) {
	// Late evening local time must not shift to the next UTC day.
	d := time.Date(2025, time.December, 31, 23, 59, 59, 0, time.Local)
	assert.Equal(t, "2025-12-31", datekey.Key(d))
}

func TestTodayMatchesKeyOfNow(t *testing.T) {
	assert.Equal(t, datekey.Key(time.Now()), datekey.Today())
}

func TestParseRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local),
		time.Date(1999, time.December, 31, 0, 0, 0, 0, time.Local),
	}
	for _, d := range dates {
		key := datekey.Key(d)
		parsed, err := datekey.Parse(key)
		require.NoError(t, err)
		assert.Equal(t, d.Year(), parsed.Year())
		assert.Equal(t, d.Month(), parsed.Month())
		assert.Equal(t, d.Day(), parsed.Day())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := datekey.Parse("not-a-date")
	assert.Error(t, err)
}

func TestFormatLabel(t *testing.T) {
	testCases := []struct {
		key      string
		expected string
	}{
		{"2025-01-01", "Wednesday, 1st January 2025"},
		{"2025-06-02", "Monday, 2nd June 2025"},
		{"2025-06-03", "Tuesday, 3rd June 2025"},
		{"2025-06-04", "Wednesday, 4th June 2025"},
		{"2025-06-11", "Wednesday, 11th June 2025"},
		{"2025-06-12", "Thursday, 12th June 2025"},
		{"2025-06-13", "Friday, 13th June 2025"},
		{"2025-06-21", "Saturday, 21st June 2025"},
		{"2025-06-22", "Sunday, 22nd June 2025"},
		{"2025-06-23", "Monday, 23rd June 2025"},
		{"2025-06-20", "Friday, 20th June 2025"},
		{"2025-06-24", "Tuesday, 24th June 2025"},
		{"2025-12-31", "Wednesday, 31st December 2025"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, datekey.FormatLabel(tc.key), "key %s", tc.key)
	}
}

func TestFormatLabelEmptyAndInvalid(t *testing.T) {
	assert.Equal(t, "", datekey.FormatLabel(""))
	assert.Equal(t, "", datekey.FormatLabel("2025-13-45"))
	assert.Equal(t, "", datekey.FormatLabel("garbage"))
}

func TestLabelRoundTrip(t *testing.T) {
	// Formatting then re-deriving the key from the parsed date recovers
	// the same year/month/day for every day of a sample month.
	for day := 1; day <= 31; day++ {
		d := time.Date(2025, time.January, day, 0, 0, 0, 0, time.Local)
		key := datekey.Key(d)
		require.NotEmpty(t, datekey.FormatLabel(key))
		parsed, err := datekey.Parse(key)
		require.NoError(t, err)
		assert.Equal(t, key, datekey.Key(parsed))
	}
}
