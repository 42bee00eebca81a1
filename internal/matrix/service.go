package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlas-plan/atlas-plan/internal/observability"
	"github.com/atlas-plan/atlas-plan/internal/org"
	"github.com/atlas-plan/atlas-plan/internal/plan"
	"github.com/atlas-plan/atlas-plan/internal/shared"
)

// Service coordinates source loading, the tree and roll-up engines, and the
// cache layer. Only unfiltered views are cached; a search term produces a
// fresh computation every time.
type Service struct {
	repo    Repository
	cache   *Cache
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService wires a Repository with the cache and observability helpers.
func NewService(repo Repository, cache *Cache, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// sources is one consistent snapshot of everything a matrix needs.
type sources struct {
	records []org.FlatRecord
	planned []plan.MetricPoint
	actual  []plan.MetricPoint
}

// loadSources fetches records and both hour series concurrently.
func (s *Service) loadSources(ctx context.Context, dim Dimension, year int) (*sources, error) {
	var src sources
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.records, err = s.repo.Records(ctx, dim)
		return err
	})
	g.Go(func() error {
		var err error
		src.planned, err = s.repo.PlannedHours(ctx, dim, year)
		return err
	})
	g.Go(func() error {
		var err error
		src.actual, err = s.repo.ActualHours(ctx, dim, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// nil means a source never arrived; an empty slice is a real, empty
	// answer and computes a matrix of zeros.
	if src.records == nil || src.planned == nil || src.actual == nil {
		return nil, fmt.Errorf("matrix: sources for %s/%d: %w", dim, year, shared.ErrNotReady)
	}
	return &src, nil
}

// Matrix returns the allocation matrix for one year and dimension.
func (s *Service) Matrix(ctx context.Context, req MatrixRequest) (*MatrixVM, error) {
	if req.Year == 0 {
		req.Year = s.now().Year()
	}
	if req.Search != "" || s.cache == nil {
		return s.buildMatrix(ctx, req.Dimension, req.Year, req.Search)
	}
	key, err := s.cache.BuildKey(ctx, keyMatrix(req.Dimension, req.Year))
	if err != nil {
		return nil, err
	}
	var vm MatrixVM
	err = s.cache.FetchJSON(ctx, key, &vm, func(ctx context.Context) (interface{}, error) {
		return s.buildMatrix(ctx, req.Dimension, req.Year, "")
	})
	if err != nil {
		return nil, err
	}
	return &vm, nil
}

func (s *Service) buildMatrix(ctx context.Context, dim Dimension, year int, search string) (*MatrixVM, error) {
	start := s.now()
	src, err := s.loadSources(ctx, dim, year)
	if err != nil {
		return nil, err
	}
	merged, dupCount := s.merge(src)
	tree := org.BuildTree(src.records, org.BuildOptions{})
	if search != "" {
		tree = org.FilterTree(tree, search)
	}

	aggPlanned := plan.NewAggregator(tree, merged, plan.Planned)
	aggActual := plan.NewAggregator(tree, merged, plan.Actual)
	ref := s.now()

	rows := make([]RowVM, 0, tree.Len())
	tree.Walk(func(n *org.Node, depth int) bool {
		rows = append(rows, s.rowFor(tree, n, depth, year, aggPlanned, aggActual, ref))
		return true
	})

	vm := &MatrixVM{
		Year:            year,
		Dimension:       dim,
		GeneratedAt:     ref.UTC(),
		Rows:            rows,
		GrandTotal:      s.grandTotalRow(year, aggPlanned, aggActual, ref),
		DuplicatePoints: dupCount,
	}
	s.metrics.ObserveMatrixBuild(string(dim), s.now().Sub(start))
	return vm, nil
}

// merge combines the two series, logging duplicates instead of failing:
// last write wins and the matrix still renders.
func (s *Service) merge(src *sources) (plan.SeriesMap, int) {
	merged, dups := plan.MergeSeries(src.planned, src.actual)
	if len(dups) > 0 && s.logger != nil {
		s.logger.Warn("duplicate metric points collapsed",
			slog.Int("count", len(dups)),
			slog.String("entity", dups[0].Point.EntityID),
		)
	}
	return merged, len(dups)
}

func (s *Service) rowFor(tree *org.Tree, n *org.Node, depth, year int, aggPlanned, aggActual *plan.Aggregator, ref time.Time) RowVM {
	row := RowVM{
		ID:        n.ID,
		Code:      n.Code,
		Name:      n.Name,
		Type:      n.Type,
		Depth:     depth,
		Leaf:      tree.IsLeaf(n.ID),
		Synthetic: n.Synthetic,
		Cells:     make([]CellVM, 0, 12),
	}
	for month := 1; month <= 12; month++ {
		key := plan.PeriodKey(year, month)
		cell := plan.Cell{
			Planned: aggPlanned.Aggregate(n.ID, key),
			Actual:  aggActual.Aggregate(n.ID, key),
		}
		row.Cells = append(row.Cells, CellVM{
			PeriodKey: key,
			CellView:  plan.RenderCell(cell, plan.Classify(year, month, ref)),
		})
	}
	row.TotalPlanned = aggPlanned.Aggregate(n.ID, "")
	row.TotalActual = aggActual.Aggregate(n.ID, "")
	row.UtilizationPct = plan.Percent(row.TotalActual, row.TotalPlanned)
	return row
}

func (s *Service) grandTotalRow(year int, aggPlanned, aggActual *plan.Aggregator, ref time.Time) RowVM {
	row := RowVM{
		ID:    "total",
		Name:  "Total",
		Cells: make([]CellVM, 0, 12),
	}
	for month := 1; month <= 12; month++ {
		key := plan.PeriodKey(year, month)
		cell := plan.Cell{
			Planned: aggPlanned.GrandTotal(key),
			Actual:  aggActual.GrandTotal(key),
		}
		row.Cells = append(row.Cells, CellVM{
			PeriodKey: key,
			CellView:  plan.RenderCell(cell, plan.Classify(year, month, ref)),
		})
	}
	row.TotalPlanned = aggPlanned.GrandTotal("")
	row.TotalActual = aggActual.GrandTotal("")
	row.UtilizationPct = plan.Percent(row.TotalActual, row.TotalPlanned)
	return row
}

// Summary returns per-project totals ordered by descending planned hours.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) ([]SummaryRow, error) {
	if req.Year == 0 {
		req.Year = s.now().Year()
	}
	if req.Search != "" || s.cache == nil {
		return s.buildSummary(ctx, req.Year, req.Search)
	}
	key, err := s.cache.BuildKey(ctx, keySummary(req.Year))
	if err != nil {
		return nil, err
	}
	var out []SummaryRow
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.buildSummary(ctx, req.Year, "")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) buildSummary(ctx context.Context, year int, search string) ([]SummaryRow, error) {
	src, err := s.loadSources(ctx, DimensionOrg, year)
	if err != nil {
		return nil, err
	}
	merged, _ := s.merge(src)
	tree := org.BuildTree(src.records, org.BuildOptions{})
	if search != "" {
		tree = org.FilterTree(tree, search)
	}
	aggPlanned := plan.NewAggregator(tree, merged, plan.Planned)
	aggActual := plan.NewAggregator(tree, merged, plan.Actual)

	out := make([]SummaryRow, 0, 32)
	tree.Walk(func(n *org.Node, depth int) bool {
		if n.Type != org.TypeProject {
			return true
		}
		planned := aggPlanned.Aggregate(n.ID, "")
		actual := aggActual.Aggregate(n.ID, "")
		out = append(out, SummaryRow{
			ProjectID:      n.ID,
			Code:           n.Code,
			Name:           n.Name,
			Planned:        planned,
			Actual:         actual,
			UtilizationPct: plan.Percent(actual, planned),
			Variance:       plan.Variance(planned, actual),
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Planned > out[j].Planned
	})
	return out, nil
}

// SelectorTree returns the nested hierarchy for selector dropdowns. Empty
// groups stay visible so new projects can be filed anywhere.
func (s *Service) SelectorTree(ctx context.Context, req TreeRequest) ([]TreeNodeVM, error) {
	if req.Search != "" || s.cache == nil {
		return s.buildTree(ctx, req.Dimension, req.Search)
	}
	key, err := s.cache.BuildKey(ctx, keyTree(req.Dimension))
	if err != nil {
		return nil, err
	}
	var out []TreeNodeVM
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.buildTree(ctx, req.Dimension, "")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) buildTree(ctx context.Context, dim Dimension, search string) ([]TreeNodeVM, error) {
	records, err := s.repo.Records(ctx, dim)
	if err != nil {
		return nil, err
	}
	if records == nil {
		return nil, fmt.Errorf("matrix: records for %s: %w", dim, shared.ErrNotReady)
	}
	tree := org.BuildTree(records, org.BuildOptions{KeepEmptyGroups: true})
	if search != "" {
		tree = org.FilterTree(tree, search)
	}
	out := make([]TreeNodeVM, 0, len(tree.Roots))
	for _, id := range tree.Roots {
		out = append(out, nestNode(tree, id))
	}
	return out, nil
}

func nestNode(tree *org.Tree, id string) TreeNodeVM {
	n := tree.Node(id)
	vm := TreeNodeVM{
		ID:        n.ID,
		Code:      n.Code,
		Name:      n.Name,
		Type:      n.Type,
		Synthetic: n.Synthetic,
		Children:  make([]TreeNodeVM, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		vm.Children = append(vm.Children, nestNode(tree, child))
	}
	return vm
}

// Warmup primes the unfiltered caches for the given year.
func (s *Service) Warmup(ctx context.Context, year int) error {
	if year == 0 {
		year = s.now().Year()
	}
	for _, dim := range Dimensions {
		if _, err := s.Matrix(ctx, MatrixRequest{Year: year, Dimension: dim}); err != nil {
			return fmt.Errorf("matrix: warm %s matrix: %w", dim, err)
		}
		if _, err := s.SelectorTree(ctx, TreeRequest{Dimension: dim}); err != nil {
			return fmt.Errorf("matrix: warm %s tree: %w", dim, err)
		}
	}
	if _, err := s.Summary(ctx, SummaryRequest{Year: year}); err != nil {
		return fmt.Errorf("matrix: warm summary: %w", err)
	}
	return nil
}

// InvalidateCache bumps the cache version after plan or worklog writes.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
