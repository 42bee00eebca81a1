// Package matrix assembles the resource-allocation matrix: organizational
// trees crossed with monthly planned and actual hours, rolled up at every
// level. Data is fetched first, then computed in one synchronous pass;
// derived cells are never mutated in place, a fresh run replaces them.
package matrix

import (
	"errors"
	"time"

	"github.com/atlas-plan/atlas-plan/internal/org"
	"github.com/atlas-plan/atlas-plan/internal/plan"
)

// Dimension selects which hierarchy the matrix is built over.
type Dimension string

const (
	// DimensionOrg is Business Unit -> Product Line -> Project.
	DimensionOrg Dimension = "org"
	// DimensionTeam is Department -> Sub Team -> User.
	DimensionTeam Dimension = "team"
)

// Dimensions lists the supported hierarchies.
var Dimensions = []Dimension{DimensionOrg, DimensionTeam}

// ErrUnknownDimension indicates a dimension outside the supported set.
var ErrUnknownDimension = errors.New("matrix: unknown dimension")

// MatrixRequest selects one matrix view.
type MatrixRequest struct {
	Year      int       `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Dimension Dimension `json:"dimension" validate:"required,oneof=org team"`
	Search    string    `json:"search" validate:"omitempty,max=120"`
}

// SummaryRequest selects one project summary view.
type SummaryRequest struct {
	Year   int    `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Search string `json:"search" validate:"omitempty,max=120"`
}

// TreeRequest selects one selector tree.
type TreeRequest struct {
	Dimension Dimension `json:"dimension" validate:"required,oneof=org team"`
	Search    string    `json:"search" validate:"omitempty,max=120"`
}

// CellVM is one aggregated matrix cell, keyed to its period column.
type CellVM struct {
	PeriodKey string `json:"period"`
	plan.CellView
}

// RowVM is one tree row of the matrix with its twelve period cells.
type RowVM struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Type           org.NodeType `json:"type"`
	Depth          int          `json:"depth"`
	Leaf           bool         `json:"leaf"`
	Synthetic      bool         `json:"synthetic,omitempty"`
	Cells          []CellVM     `json:"cells"`
	TotalPlanned   float64      `json:"total_planned"`
	TotalActual    float64      `json:"total_actual"`
	UtilizationPct float64      `json:"utilization_pct"`
}

// MatrixVM is the full allocation matrix for one year and dimension.
// DuplicatePoints counts source points that collided during the merge;
// the matrix still renders, last write wins.
type MatrixVM struct {
	Year            int       `json:"year"`
	Dimension       Dimension `json:"dimension"`
	GeneratedAt     time.Time `json:"generated_at"`
	Rows            []RowVM   `json:"rows"`
	GrandTotal      RowVM     `json:"grand_total"`
	DuplicatePoints int       `json:"duplicate_points,omitempty"`
}

// SummaryRow is one project line of the summary roll-up, ordered by
// descending planned total.
type SummaryRow struct {
	ProjectID      string            `json:"project_id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Planned        float64           `json:"planned"`
	Actual         float64           `json:"actual"`
	UtilizationPct float64           `json:"utilization_pct"`
	Variance       plan.VarianceFlag `json:"variance"`
}

// TreeNodeVM is the nested selector-tree shape consumed by dropdowns.
type TreeNodeVM struct {
	ID        string       `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Type      org.NodeType `json:"type"`
	Synthetic bool         `json:"synthetic,omitempty"`
	Children  []TreeNodeVM `json:"children"`
}
