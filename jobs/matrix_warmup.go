package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atlas-plan/atlas-plan/internal/jobs"
	"github.com/atlas-plan/atlas-plan/internal/matrix"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// MatrixWarmupJob pre-populates the planning matrix caches so the first
// request after an invalidation does not pay the full build cost.
type MatrixWarmupJob struct {
	Matrix  *matrix.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewMatrixWarmupJob wires dependencies for the warmup handler.
func NewMatrixWarmupJob(matrixSvc *matrix.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *MatrixWarmupJob {
	return &MatrixWarmupJob{
		Matrix:  matrixSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes matrix warmup tasks.
func (j *MatrixWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Matrix == nil {
		return errors.New("matrix warmup: handler not configured")
	}
	var payload MatrixWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Year == 0 {
		payload.Year = j.now().Year()
	}

	tracker := j.metrics().Track(TaskMatrixWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year))
	logger.Info("starting matrix warmup")

	for _, dim := range matrix.Dimensions {
		vm, err := j.Matrix.Matrix(ctx, matrix.MatrixRequest{Year: payload.Year, Dimension: dim})
		if err != nil {
			resultErr = err
			logger.Error("warm matrix", slog.String("dimension", string(dim)), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddDuplicatePoints(string(dim), vm.DuplicatePoints)
		if _, err := j.Matrix.SelectorTree(ctx, matrix.TreeRequest{Dimension: dim}); err != nil {
			resultErr = err
			logger.Error("warm tree", slog.String("dimension", string(dim)), slog.Any("error", err))
			return resultErr
		}
	}
	if _, err := j.Matrix.Summary(ctx, matrix.SummaryRequest{Year: payload.Year}); err != nil {
		resultErr = err
		logger.Error("warm summary", slog.Any("error", err))
		return resultErr
	}

	logger.Info("matrix warmup complete")
	return resultErr
}

func (j *MatrixWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *MatrixWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *MatrixWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
