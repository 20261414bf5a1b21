package worker

import (
	"context"
	"fmt"
	"log/slog"

	batchdomain "github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/worker/domain"
)

// processBatch runs one submission. Per-item failures are part of the
// summary; only a setup error or shutdown is returned.
func (w *Worker) processBatch(ctx context.Context, sub *domain.Submission) error {
	items := batchdomain.NewWorkItems(sub.URLs)

	summary, err := w.runner.RunBatch(ctx, sub.BatchID, items)
	if err != nil {
		return fmt.Errorf("failed to run batch: %w", err)
	}

	// Items skipped by shutdown were recorded as canceled; let another
	// worker take the batch.
	if ctx.Err() != nil && summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d items failed", domain.ErrBatchInterrupted, summary.Failed, summary.Total)
	}

	w.logger.Info("Batch processed",
		slog.String("batch_id", sub.BatchID),
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded()),
		slog.Int("failed", summary.Failed),
	)

	return nil
}
