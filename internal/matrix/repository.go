package matrix

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-plan/atlas-plan/internal/org"
	"github.com/atlas-plan/atlas-plan/internal/plan"
)

// Repository loads the flat hierarchy records and the monthly hour series
// the matrix is computed from.
type Repository interface {
	Records(ctx context.Context, dim Dimension) ([]org.FlatRecord, error)
	PlannedHours(ctx context.Context, dim Dimension, year int) ([]plan.MetricPoint, error)
	ActualHours(ctx context.Context, dim Dimension, year int) ([]plan.MetricPoint, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the Postgres backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Entity IDs are namespaced per source table ('bu:', 'pl:', 'prj:', 'dep:',
// 'st:', 'usr:'). The unioned tables have independent BIGINT key spaces, so
// bare numeric IDs could collide across levels and merge unrelated nodes.
const orgRecordsSQL = `
SELECT 'bu:' || id, 'business_unit', code, name, '', '', '', NOT is_active
  FROM business_units
UNION ALL
SELECT 'pl:' || id, 'product_line', code, name, COALESCE('bu:' || business_unit_id, ''), '', '', NOT is_active
  FROM product_lines
UNION ALL
SELECT 'prj:' || id, 'project', code, name, COALESCE('pl:' || product_line_id, ''), '', '', NOT is_active
  FROM projects
ORDER BY 2, 3, 1`

const teamRecordsSQL = `
SELECT 'dep:' || id, 'department', code, name, '', '', '', NOT is_active
  FROM departments
UNION ALL
SELECT 'st:' || id, 'sub_team', code, name, COALESCE('dep:' || department_id, ''), '', '', NOT is_active
  FROM sub_teams
UNION ALL
SELECT 'usr:' || id, 'user', login, display_name, COALESCE('st:' || sub_team_id, ''),
       COALESCE(local_name, ''), COALESCE(email, ''), NOT is_active
  FROM users
ORDER BY 2, 3, 1`

func (r *repository) Records(ctx context.Context, dim Dimension) ([]org.FlatRecord, error) {
	var query string
	switch dim {
	case DimensionOrg:
		query = orgRecordsSQL
	case DimensionTeam:
		query = teamRecordsSQL
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("matrix: query records: %w", err)
	}
	defer rows.Close()

	records := make([]org.FlatRecord, 0, 64)
	for rows.Next() {
		var rec org.FlatRecord
		var typ string
		if err := rows.Scan(&rec.ID, &typ, &rec.Code, &rec.Name, &rec.ParentID,
			&rec.SecondaryName, &rec.Identifier, &rec.Archived); err != nil {
			return nil, fmt.Errorf("matrix: scan record: %w", err)
		}
		rec.Type = org.NodeType(typ)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("matrix: iterate records: %w", err)
	}
	return records, nil
}

const plannedHoursSQL = `
SELECT CASE WHEN $2 = 'org' THEN 'prj:' || project_id ELSE 'usr:' || user_id END,
       plan_year, plan_month, hours
  FROM resource_plans
 WHERE plan_year = $1
 ORDER BY id`

const actualHoursSQL = `
SELECT CASE WHEN $2 = 'org' THEN 'prj:' || project_id ELSE 'usr:' || user_id END AS entity_id,
       EXTRACT(YEAR FROM work_date)::int AS y,
       EXTRACT(MONTH FROM work_date)::int AS m,
       SUM(hours)::float8
  FROM worklog_entries
 WHERE work_date >= make_date($1, 1, 1)
   AND work_date < make_date($1 + 1, 1, 1)
 GROUP BY 1, 2, 3
 ORDER BY 1, 2, 3`

func (r *repository) PlannedHours(ctx context.Context, dim Dimension, year int) ([]plan.MetricPoint, error) {
	return r.queryPoints(ctx, plannedHoursSQL, dim, year)
}

func (r *repository) ActualHours(ctx context.Context, dim Dimension, year int) ([]plan.MetricPoint, error) {
	return r.queryPoints(ctx, actualHoursSQL, dim, year)
}

func (r *repository) queryPoints(ctx context.Context, query string, dim Dimension, year int) ([]plan.MetricPoint, error) {
	if dim != DimensionOrg && dim != DimensionTeam {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	rows, err := r.pool.Query(ctx, query, year, string(dim))
	if err != nil {
		return nil, fmt.Errorf("matrix: query points: %w", err)
	}
	defer rows.Close()

	// Non-nil even when empty: an empty result set means "no hours", a
	// nil slice means the source was never loaded.
	points := make([]plan.MetricPoint, 0, 256)
	for rows.Next() {
		var p plan.MetricPoint
		var entity pgtype.Text
		if err := rows.Scan(&entity, &p.Year, &p.Month, &p.Value); err != nil {
			return nil, fmt.Errorf("matrix: scan point: %w", err)
		}
		p.EntityID = entity.String
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("matrix: iterate points: %w", err)
	}
	return points, nil
}
