package plan

import "time"

// Period classifies a month bucket relative to a reference date.
type Period string

const (
	// PeriodPast is strictly before the reference month.
	PeriodPast Period = "past"
	// PeriodCurrent shares year and month with the reference date.
	PeriodCurrent Period = "current"
	// PeriodFuture is strictly after the reference month.
	PeriodFuture Period = "future"
)

// Classify buckets (year, month) against the reference date. Years compare
// first, then months, so the December/January rollover behaves.
func Classify(year, month int, ref time.Time) Period {
	refYear, refMonth := ref.Year(), int(ref.Month())
	switch {
	case year < refYear || (year == refYear && month < refMonth):
		return PeriodPast
	case year == refYear && month == refMonth:
		return PeriodCurrent
	default:
		return PeriodFuture
	}
}
