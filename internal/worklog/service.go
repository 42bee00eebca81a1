package worklog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/shared"
)

// Parser abstracts the external draft parser so tests can stub it.
type Parser interface {
	Parse(ctx context.Context, req ParseRequest) (*ParseResponse, error)
}

// Service coordinates entry persistence with matrix cache invalidation:
// every accepted write bumps the cache version so actual-hour roll-ups
// recompute on next read.
type Service struct {
	repo   Repository
	parser Parser
	cache  *matrix.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the repository with the parser client and cache.
func NewService(repo Repository, parser Parser, cache *matrix.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		parser: parser,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and stores one entry, then invalidates derived views.
func (s *Service) Create(ctx context.Context, input CreateEntryInput) (*Entry, error) {
	workDate, err := time.Parse("2006-01-02", input.WorkDate)
	if err != nil {
		return nil, fmt.Errorf("%w: work_date must be YYYY-MM-DD", shared.ErrInvalidInput)
	}
	if input.Hours <= 0 || input.Hours > 24 {
		return nil, fmt.Errorf("%w: hours must be in (0, 24]", shared.ErrInvalidInput)
	}
	entry := Entry{
		ID:        uuid.New(),
		UserID:    input.UserID,
		ProjectID: input.ProjectID,
		WorkDate:  workDate,
		Hours:     input.Hours,
		Note:      input.Note,
		CreatedAt: s.now().UTC(),
	}
	entry.UpdatedAt = entry.CreatedAt
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("cache bump failed after worklog write",
			slog.String("entry_id", entry.ID.String()),
			slog.Any("error", err),
		)
	}
	return &entry, nil
}

// List returns one user's entries for a month, newest page metadata included.
func (s *Service) List(ctx context.Context, filter ListFilter, page, perPage int) ([]Entry, shared.Pagination, error) {
	if filter.Month < 1 || filter.Month > 12 {
		return nil, shared.Pagination{}, fmt.Errorf("%w: month out of range", shared.ErrInvalidInput)
	}
	entries, total, err := s.repo.ListByMonth(ctx, filter, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page, perPage, total), nil
}

// Parse forwards a draft to the parser service. Parser errors come back
// unchanged so the UI can show what the upstream actually said.
func (s *Service) Parse(ctx context.Context, input ParseInput) (*ParseResponse, error) {
	req := ParseRequest{
		RequestID:     uuid.New(),
		UserID:        input.UserID,
		Draft:         input.Draft,
		ReferenceDate: input.ReferenceDate,
	}
	if req.ReferenceDate == "" {
		req.ReferenceDate = s.now().UTC().Format("2006-01-02")
	}
	resp, err := s.parser.Parse(ctx, req)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("draft parse failed",
				slog.String("request_id", req.RequestID.String()),
				slog.Any("error", err),
			)
		}
		return nil, err
	}
	return resp, nil
}
