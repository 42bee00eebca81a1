// Package plan merges planned and actual monthly hour series and rolls them
// up across organizational trees. Everything here is pure and synchronous:
// the engine is a function of its inputs and holds no state between calls.
package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// MetricPoint is one monthly value for one entity in one series.
type MetricPoint struct {
	EntityID string  `json:"entity_id"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Value    float64 `json:"value"`
}

// Cell pairs the two independently sourced values for one entity and
// period. A side missing from its source series stays exactly 0.
type Cell struct {
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
}

// SeriesMap is the merged lookup the aggregator reads at leaf level,
// keyed by entity ID then period key.
type SeriesMap map[string]map[string]Cell

// PeriodKey is the canonical "{year}-{month}" bucket key. The month is not
// zero-padded; display formatting is a presentation concern.
func PeriodKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// ParsePeriodKey splits a canonical period key back into year and month.
func ParsePeriodKey(key string) (year, month int, err error) {
	dash := strings.LastIndexByte(key, '-')
	if dash <= 0 {
		return 0, 0, fmt.Errorf("plan: malformed period key %q", key)
	}
	year, err = strconv.Atoi(key[:dash])
	if err != nil {
		return 0, 0, fmt.Errorf("plan: malformed period key %q", key)
	}
	month, err = strconv.Atoi(key[dash+1:])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("plan: malformed period key %q", key)
	}
	return year, month, nil
}

// Metric selects which side of a cell is being aggregated. The roll-up
// engine is metric-agnostic and is invoked once per metric of interest.
type Metric func(Cell) float64

// Planned reads the planned side of a cell.
func Planned(c Cell) float64 { return c.Planned }

// Actual reads the actual side of a cell.
func Actual(c Cell) float64 { return c.Actual }
