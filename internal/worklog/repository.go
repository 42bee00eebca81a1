package worklog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-plan/atlas-plan/internal/shared"
)

// Repository persists worklog entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByMonth(ctx context.Context, filter ListFilter, page, perPage int) ([]Entry, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the Postgres backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO worklog_entries (id, user_id, project_id, work_date, hours, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		entry.ID, entry.UserID, entry.ProjectID, entry.WorkDate, entry.Hours, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("worklog: insert entry: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, project_id, work_date, hours, note, created_at, updated_at
		  FROM worklog_entries
		 WHERE id = $1`, id)
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.WorkDate, &e.Hours, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("worklog: get entry: %w", err)
	}
	return &e, nil
}

func (r *repository) ListByMonth(ctx context.Context, filter ListFilter, page, perPage int) ([]Entry, int, error) {
	from := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM worklog_entries
		 WHERE user_id = $1 AND work_date >= $2 AND work_date < $3`,
		filter.UserID, from, to,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("worklog: count entries: %w", err)
	}

	p := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, project_id, work_date, hours, note, created_at, updated_at
		  FROM worklog_entries
		 WHERE user_id = $1 AND work_date >= $2 AND work_date < $3
		 ORDER BY work_date, created_at
		 LIMIT $4 OFFSET $5`,
		filter.UserID, from, to, p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("worklog: list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, p.PerPage)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.WorkDate, &e.Hours, &e.Note, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("worklog: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("worklog: iterate entries: %w", err)
	}
	return entries, total, nil
}
