package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	jobmetrics "github.com/atlas-plan/atlas-plan/internal/jobs"
	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/org"
	"github.com/atlas-plan/atlas-plan/internal/plan"
)

type warmRepo struct {
	calls int
}

func (r *warmRepo) Records(ctx context.Context, dim matrix.Dimension) ([]org.FlatRecord, error) {
	r.calls++
	return []org.FlatRecord{
		{ID: "bu1", Code: "BU1", Name: "Platform", Type: org.TypeBusinessUnit},
		{ID: "pl1", Code: "PL1", Name: "Payments", Type: org.TypeProductLine, ParentID: "bu1"},
		{ID: "p1", Code: "PAY-1", Name: "Gateway", Type: org.TypeProject, ParentID: "pl1"},
	}, nil
}

func (r *warmRepo) PlannedHours(ctx context.Context, dim matrix.Dimension, year int) ([]plan.MetricPoint, error) {
	return []plan.MetricPoint{{EntityID: "p1", Year: year, Month: 1, Value: 10}}, nil
}

func (r *warmRepo) ActualHours(ctx context.Context, dim matrix.Dimension, year int) ([]plan.MetricPoint, error) {
	return []plan.MetricPoint{}, nil
}

func newWarmupJob(t *testing.T) (*MatrixWarmupJob, *warmRepo) {
	t.Helper()
	repo := &warmRepo{}
	svc := matrix.NewService(repo, nil, nil, nil)
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewMatrixWarmupJob(svc, nil, metrics)
	job.clock = func() time.Time {
		return time.Date(2026, 3, 15, 1, 15, 0, 0, time.UTC)
	}
	return job, repo
}

func TestMatrixWarmupHandlesAllDimensions(t *testing.T) {
	job, repo := newWarmupJob(t)
	task, err := NewMatrixWarmupTask(MatrixWarmupPayload{Year: 2026})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One matrix and one tree load per dimension, plus the summary.
	if repo.calls != 5 {
		t.Fatalf("expected 5 record loads, got %d", repo.calls)
	}
}

func TestMatrixWarmupSkipsRetryOnBadPayload(t *testing.T) {
	job, _ := newWarmupJob(t)
	task := asynq.NewTask(TaskMatrixWarmup, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
