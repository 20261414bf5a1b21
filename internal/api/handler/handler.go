package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/media-batch/internal/report"
)

// RunStore reads batch run history
type RunStore interface {
	ListRuns(ctx context.Context, filter report.RunFilter) ([]report.RunRow, error)
	GetRun(ctx context.Context, runID string) (*report.RunRow, error)
	ListFailures(ctx context.Context, runID string) ([]report.FailureRow, error)
}

// Publisher hands batch submissions to the worker queue
type Publisher interface {
	PublishJSON(ctx context.Context, messageID string, v any) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Store     RunStore
	Publisher Publisher
}

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	logger    *slog.Logger
	store     RunStore
	publisher Publisher
}

// NewBatchHandler creates a new BatchHandler instance
func NewBatchHandler(deps *Dependencies) *BatchHandler {
	return &BatchHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		publisher: deps.Publisher,
	}
}
