package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/media-batch/internal/worker/domain"
)

// spawnBatchLoops starts the goroutines that each run one batch at a time
func (w *Worker) spawnBatchLoops(ctx context.Context) {
	for i := 0; i < w.batchLoops; i++ {
		w.wg.Add(1)
		go w.batchLoop(ctx, i)
	}

	w.logger.Info("Batch loops spawned", slog.Int("loop_count", w.batchLoops))
}

// batchLoop runs submissions until the dispatcher closes batchesChan
func (w *Worker) batchLoop(ctx context.Context, loopNum int) {
	defer w.wg.Done()

	loopName := fmt.Sprintf("%s-%d", w.workerID, loopNum)

	for sub := range w.batchesChan {
		w.logger.Info("Batch received",
			slog.String("loop", loopName),
			slog.String("batch_id", sub.BatchID),
			slog.Int("urls", len(sub.URLs)),
		)

		err := w.processBatch(ctx, &sub.Submission)
		w.settle(sub, err)
	}
}

// settle acks a finished batch and nacks an interrupted or broken one
func (w *Worker) settle(sub *submission, err error) {
	logger := w.logger.With(slog.String("batch_id", sub.BatchID))

	if err == nil {
		if ackErr := sub.delivery.Ack(false); ackErr != nil {
			logger.Error("Failed to ACK message", slog.String("error", ackErr.Error()))
		}
		return
	}

	requeue := shouldRequeue(err)
	logger.Warn("Batch not settled",
		slog.String("error", err.Error()),
		slog.Bool("requeue", requeue),
	)

	if nackErr := sub.delivery.Nack(false, requeue); nackErr != nil {
		logger.Error("Failed to NACK message", slog.String("error", nackErr.Error()))
	}
}

// shouldRequeue reports whether another worker should retry the batch
func shouldRequeue(err error) bool {
	return errors.Is(err, domain.ErrBatchInterrupted)
}
