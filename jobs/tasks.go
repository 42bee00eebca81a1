// Package jobs defines the Asynq task types and worker plumbing for
// background maintenance of derived planning views.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMatrixWarmup pre-populates the planning matrix caches.
	TaskMatrixWarmup = "matrix:warmup"
	// TaskCacheInvalidate bumps the cache version after bulk imports.
	TaskCacheInvalidate = "matrix:invalidate"
)

// MatrixWarmupPayload scopes a warmup run. A zero Year means the current
// year at execution time.
type MatrixWarmupPayload struct {
	Year int `json:"year"`
}

// NewMatrixWarmupTask constructs an Asynq task.
func NewMatrixWarmupTask(payload MatrixWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMatrixWarmup, data), nil
}

// NewCacheInvalidateTask constructs an invalidation task.
func NewCacheInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskCacheInvalidate, nil)
}

// Invalidator bumps the derived-view cache version.
type Invalidator interface {
	InvalidateCache(ctx context.Context) error
}

// HandleCacheInvalidateTask processes TaskCacheInvalidate tasks.
func HandleCacheInvalidateTask(inv Invalidator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return inv.InvalidateCache(ctx)
	}
}
