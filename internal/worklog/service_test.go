package worklog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/shared"
)

type memRepo struct {
	entries []Entry
	insErr  error
}

func (m *memRepo) Insert(ctx context.Context, entry Entry) error {
	if m.insErr != nil {
		return m.insErr
	}
	for _, e := range m.entries {
		if e.UserID == entry.UserID && e.ProjectID == entry.ProjectID && e.WorkDate.Equal(entry.WorkDate) {
			return ErrDuplicateEntry
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memRepo) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return &m.entries[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) ListByMonth(ctx context.Context, filter ListFilter, page, perPage int) ([]Entry, int, error) {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.UserID == filter.UserID && e.WorkDate.Year() == filter.Year && int(e.WorkDate.Month()) == filter.Month {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

type stubParser struct {
	lastReq ParseRequest
	resp    *ParseResponse
	err     error
}

func (p *stubParser) Parse(ctx context.Context, req ParseRequest) (*ParseResponse, error) {
	p.lastReq = req
	return p.resp, p.err
}

func newTestService(t *testing.T, repo Repository, parser Parser) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(repo, parser, matrix.NewCache(client, time.Minute), nil)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	}
	return svc, client
}

func TestCreateStoresEntryAndBumpsCache(t *testing.T) {
	repo := &memRepo{}
	svc, client := newTestService(t, repo, nil)
	ctx := context.Background()

	entry, err := svc.Create(ctx, CreateEntryInput{
		UserID:    "u1",
		ProjectID: "p1",
		WorkDate:  "2026-03-10",
		Hours:     7.5,
		Note:      "api integration",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if !entry.WorkDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected work date %v", entry.WorkDate)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(repo.entries))
	}
	ver, err := client.Get(ctx, "matrix:version").Int64()
	if err != nil {
		t.Fatalf("expected cache version after bump: %v", err)
	}
	if ver != 1 {
		t.Fatalf("expected version 1 after first bump, got %d", ver)
	}
}

func TestCreateRejectsMalformedDate(t *testing.T) {
	svc, _ := newTestService(t, &memRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateEntryInput{
		UserID:    "u1",
		ProjectID: "p1",
		WorkDate:  "10/03/2026",
		Hours:     8,
	})
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateReportsDuplicates(t *testing.T) {
	repo := &memRepo{}
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()
	input := CreateEntryInput{UserID: "u1", ProjectID: "p1", WorkDate: "2026-03-10", Hours: 8}

	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Create(ctx, input)
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
}

func TestListFiltersByMonth(t *testing.T) {
	repo := &memRepo{}
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-04-01"} {
		if _, err := svc.Create(ctx, CreateEntryInput{UserID: "u1", ProjectID: "p1", WorkDate: date, Hours: 8}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	entries, pagination, err := svc.List(ctx, ListFilter{UserID: "u1", Year: 2026, Month: 3}, 1, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 march entries, got %d", len(entries))
	}
	if pagination.Total != 2 {
		t.Fatalf("expected total 2, got %d", pagination.Total)
	}
}

func TestParseDefaultsReferenceDate(t *testing.T) {
	parser := &stubParser{resp: &ParseResponse{Entries: []ParsedEntry{
		{ProjectCode: "PAY-1", WorkDate: "2026-03-13", Hours: 3, Confidence: 0.9},
	}}}
	svc, _ := newTestService(t, &memRepo{}, parser)

	resp, err := svc.Parse(context.Background(), ParseInput{UserID: "u1", Draft: "3h on payments friday"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 parsed entry, got %d", len(resp.Entries))
	}
	if parser.lastReq.ReferenceDate != "2026-03-15" {
		t.Fatalf("expected clock-based reference date, got %q", parser.lastReq.ReferenceDate)
	}
	if parser.lastReq.RequestID == uuid.Nil {
		t.Fatalf("expected correlation id on parser request")
	}
}

func TestParseSurfacesParserErrors(t *testing.T) {
	parser := &stubParser{err: &ParserError{Status: 422, Body: "could not resolve project"}}
	svc, _ := newTestService(t, &memRepo{}, parser)

	_, err := svc.Parse(context.Background(), ParseInput{UserID: "u1", Draft: "???"})
	var parserErr *ParserError
	if !errors.As(err, &parserErr) {
		t.Fatalf("expected ParserError, got %v", err)
	}
	if parserErr.Status != 422 {
		t.Fatalf("expected upstream status preserved, got %d", parserErr.Status)
	}
}
