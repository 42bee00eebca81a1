package plan

import "math"

// DisplayMode states which sides of a cell are meaningful to render.
type DisplayMode string

const (
	// DisplayEmpty renders nothing; a cell with zero on both sides must
	// never render as "0".
	DisplayEmpty DisplayMode = "empty"
	// DisplayPlannedOnly renders the planned side alone (future periods).
	DisplayPlannedOnly DisplayMode = "planned_only"
	// DisplayPlanActual renders "planned/actual" (current and past periods).
	DisplayPlanActual DisplayMode = "plan_actual"
)

// VarianceFlag marks how actual relates to planned beyond the tolerance.
type VarianceFlag string

const (
	// VarianceNone means actual is within tolerance of planned.
	VarianceNone VarianceFlag = "none"
	// VarianceOver flags over-allocation: actual exceeds planned.
	VarianceOver VarianceFlag = "over"
	// VarianceSlack flags under-spend: actual falls short of planned.
	VarianceSlack VarianceFlag = "slack"
)

// varianceTolerance is the dead band, in hours, inside which plan and
// actual are considered equal.
const varianceTolerance = 0.1

// CellView is the rendering contract for one aggregated cell.
type CellView struct {
	Planned  float64      `json:"planned"`
	Actual   float64      `json:"actual"`
	Period   Period       `json:"period"`
	Mode     DisplayMode  `json:"mode"`
	Variance VarianceFlag `json:"variance"`
}

// RenderCell applies the display policy for a classified period: future
// buckets show plan only, current and past buckets show both sides with a
// variance flag. Variance is only judged once a period has begun.
func RenderCell(c Cell, p Period) CellView {
	view := CellView{Planned: c.Planned, Actual: c.Actual, Period: p, Variance: VarianceNone}
	switch {
	case c.Planned == 0 && c.Actual == 0:
		view.Mode = DisplayEmpty
	case p == PeriodFuture:
		view.Mode = DisplayPlannedOnly
	default:
		view.Mode = DisplayPlanActual
		view.Variance = Variance(c.Planned, c.Actual)
	}
	return view
}

// Variance compares actual against planned with the tolerance dead band.
func Variance(planned, actual float64) VarianceFlag {
	diff := actual - planned
	switch {
	case diff > varianceTolerance:
		return VarianceOver
	case diff < -varianceTolerance:
		return VarianceSlack
	default:
		return VarianceNone
	}
}

// Percent returns part/whole as a percentage rounded to two decimals. A
// zero or non-finite denominator yields 0, never NaN.
func Percent(part, whole float64) float64 {
	if whole == 0 || math.IsNaN(whole) || math.IsInf(whole, 0) {
		return 0
	}
	pct := part / whole * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return math.Round(pct*100) / 100
}
