// Package stats computes derived attendance figures from the roster and
// ledger projections. Every function is a pure re-derivation of current
// snapshot state: no side effects, no caching, and no error returns —
// degenerate inputs map to policy-defined defaults instead.
package stats

import (
	"math"

	"church-attendance-backend/internal/models"
)

// Ledger is the read surface of the attendance ledger the computations
// need. Implemented by projection.Ledger.
type Ledger interface {
	IsPresent(dateKey, memberID string) bool
	HasSaved(dateKey string) bool
}

// Roster is the read surface of the member roster. Implemented by
// projection.Roster.
type Roster interface {
	All() []*models.Member
	Size() int
}

// AttendanceRate returns the member's attendance percentage over the saved
// dates on or after their join date. A member with no qualifying saved
// dates yet is reported at 100: a brand-new member starts fully attending,
// an optimistic default rather than an undefined value.
func AttendanceRate(memberID, joinedKey string, datesKnown []string, ledger Ledger) int {
	qualifying := 0
	present := 0
	for _, d := range datesKnown {
		if d < joinedKey || !ledger.HasSaved(d) {
			continue
		}
		qualifying++
		if ledger.IsPresent(d, memberID) {
			present++
		}
	}
	if qualifying == 0 {
		return 100
	}
	return roundPercent(present, qualifying)
}

// LastAttendedDate returns the most recent date the member was marked
// present, scanning datesKnown newest-first. ok is false when the member
// has never attended.
func LastAttendedDate(memberID string, datesKnown []string, ledger Ledger) (string, bool) {
	for i := len(datesKnown) - 1; i >= 0; i-- {
		if ledger.IsPresent(datesKnown[i], memberID) {
			return datesKnown[i], true
		}
	}
	return "", false
}

// PresentCount returns how many roster members are marked present on the
// date. Ledger entries for ids outside the roster (deleted members, other
// churches) are skipped, never an error.
func PresentCount(dateKey string, roster Roster, ledger Ledger) int {
	n := 0
	for _, m := range roster.All() {
		if ledger.IsPresent(dateKey, m.ID) {
			n++
		}
	}
	return n
}

// AbsentCount returns how many roster members are absent on the date
func AbsentCount(dateKey string, roster Roster, ledger Ledger) int {
	return roster.Size() - PresentCount(dateKey, roster, ledger)
}

// PercentPresent returns the share of the roster present on the date as a
// rounded percentage. An empty roster yields 0, never a division error.
func PercentPresent(dateKey string, roster Roster, ledger Ledger) int {
	size := roster.Size()
	if size == 0 {
		return 0
	}
	return roundPercent(PresentCount(dateKey, roster, ledger), size)
}

// AverageAttendance returns the mean of the per-day percent present across
// the given saved dates, clamped to [0,100]. No members or no saved days
// yields 0.
func AverageAttendance(savedDates []string, roster Roster, ledger Ledger) int {
	size := roster.Size()
	if size == 0 || len(savedDates) == 0 {
		return 0
	}

	total := 0.0
	for _, d := range savedDates {
		total += 100 * float64(PresentCount(d, roster, ledger)) / float64(size)
	}
	avg := int(math.Round(total / float64(len(savedDates))))
	if avg < 0 {
		return 0
	}
	if avg > 100 {
		return 100
	}
	return avg
}

// roundPercent rounds 100*n/d half away from zero
func roundPercent(n, d int) int {
	return int(math.Round(100 * float64(n) / float64(d)))
}
