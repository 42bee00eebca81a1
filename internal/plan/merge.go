package plan

// Duplicate reports a point that overwrote an earlier value for the same
// (entity, year, month) in the same series. The overwrite itself is
// last-write-wins, inherited behavior; callers are expected to log these as
// a data-quality signal rather than fail.
type Duplicate struct {
	Series   string
	Point    MetricPoint
	Previous float64
}

// MergeSeries joins the planned and actual series into one per-entity,
// per-period map. Entities present in only one series still get an entry
// with the missing side at 0. The map is computed once and aggregated many
// times; it must not be rebuilt per tree node.
func MergeSeries(planned, actual []MetricPoint) (SeriesMap, []Duplicate) {
	out := make(SeriesMap)
	var dups []Duplicate

	merge := func(series string, points []MetricPoint, set func(*Cell, float64) float64) {
		seen := make(map[string]map[string]bool)
		for _, p := range points {
			if p.EntityID == "" || p.Month < 1 || p.Month > 12 {
				continue
			}
			key := PeriodKey(p.Year, p.Month)
			periods := out[p.EntityID]
			if periods == nil {
				periods = make(map[string]Cell)
				out[p.EntityID] = periods
			}
			cell := periods[key]
			prev := set(&cell, p.Value)
			periods[key] = cell

			if seen[p.EntityID] == nil {
				seen[p.EntityID] = make(map[string]bool)
			}
			if seen[p.EntityID][key] {
				dups = append(dups, Duplicate{Series: series, Point: p, Previous: prev})
			}
			seen[p.EntityID][key] = true
		}
	}

	merge("planned", planned, func(c *Cell, v float64) float64 {
		prev := c.Planned
		c.Planned = v
		return prev
	})
	merge("actual", actual, func(c *Cell, v float64) float64 {
		prev := c.Actual
		c.Actual = v
		return prev
	})
	return out, dups
}
