package plan

import "github.com/atlas-plan/atlas-plan/internal/org"

// Aggregator rolls a leaf-level metric up through every ancestor level of a
// tree. Leaves read from the merged series map; internal nodes sum their
// children. Results are memoized per (node, period) for the lifetime of the
// Aggregator, so a grand-total row iterating the tree once per period
// column stays linear.
type Aggregator struct {
	tree   *org.Tree
	series SeriesMap
	metric Metric
	memo   map[string]float64
}

// NewAggregator prepares one roll-up pass over the tree for one metric.
func NewAggregator(tree *org.Tree, series SeriesMap, metric Metric) *Aggregator {
	return &Aggregator{
		tree:   tree,
		series: series,
		metric: metric,
		memo:   make(map[string]float64),
	}
}

// Aggregate returns the metric summed over the subtree rooted at nodeID for
// the given period. An empty periodKey aggregates the total across all
// periods present for the subtree's leaves.
func (a *Aggregator) Aggregate(nodeID, periodKey string) float64 {
	memoKey := nodeID + "\x00" + periodKey
	if v, ok := a.memo[memoKey]; ok {
		return v
	}

	n := a.tree.Node(nodeID)
	if n == nil {
		return 0
	}

	var sum float64
	if len(n.Children) == 0 {
		sum = a.leafValue(nodeID, periodKey)
	} else {
		for _, child := range n.Children {
			sum += a.Aggregate(child, periodKey)
		}
	}
	a.memo[memoKey] = sum
	return sum
}

// GrandTotal sums the metric across every root of the forest for the given
// period. By associativity this equals the sum of all leaf values.
func (a *Aggregator) GrandTotal(periodKey string) float64 {
	var sum float64
	for _, root := range a.tree.Roots {
		sum += a.Aggregate(root, periodKey)
	}
	return sum
}

func (a *Aggregator) leafValue(entityID, periodKey string) float64 {
	periods := a.series[entityID]
	if periods == nil {
		return 0
	}
	if periodKey != "" {
		return a.metric(periods[periodKey])
	}
	var sum float64
	for _, cell := range periods {
		sum += a.metric(cell)
	}
	return sum
}
