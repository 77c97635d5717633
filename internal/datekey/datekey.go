// Package datekey canonicalizes calendar dates to the sortable YYYY-MM-DD
// string keys used throughout the attendance tree, and renders them as
// human-readable labels for the UI.
package datekey

import (
	"fmt"
	"time"
)

// Layout is the canonical date key format. Lexicographic order of keys in
// this format matches chronological order.
const Layout = "2006-01-02"

// Key returns the date key for the local calendar day of t.
func Key(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the date key for the current local calendar day. It is
// recomputed on every call so long-running processes roll over at midnight.
func Today() string {
	return Key(time.Now())
}

// Parse converts a date key back into a time.Time in the local zone.
func Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// FormatLabel renders a date key as "Monday, 1st January 2025".
// It returns the empty string for an empty or malformed key.
func FormatLabel(key string) string {
	if key == "" {
		return ""
	}
	t, err := Parse(key)
	if err != nil {
		return ""
	}
	day := t.Day()
	return fmt.Sprintf("%s, %d%s %s %d",
		t.Weekday().String(), day, ordinal(day), t.Month().String(), t.Year())
}

// ordinal returns the English ordinal suffix for a day of month.
// 11-13 always take "th" regardless of their last digit.
func ordinal(n int) string {
	if v := n % 100; v >= 11 && v <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
