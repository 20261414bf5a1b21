package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	batchdomain "github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/worker/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliverySource yields batch submission deliveries
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// BatchRunner runs one batch to completion
type BatchRunner interface {
	RunBatch(ctx context.Context, runID string, items []batchdomain.WorkItem) (*batchdomain.Summary, error)
}

// Config holds worker configuration
type Config struct {
	Logger     *slog.Logger
	Source     DeliverySource
	Runner     BatchRunner
	BatchLoops int
	WorkerID   string
}

// Worker consumes batch submissions and runs them through the scheduler
type Worker struct {
	logger      *slog.Logger
	source      DeliverySource
	runner      BatchRunner
	batchLoops  int
	workerID    string
	batchesChan chan *submission
	wg          sync.WaitGroup
}

// submission pairs a parsed message with the delivery that must be settled
type submission struct {
	domain.Submission
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) (*Worker, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("delivery source is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("batch runner is required")
	}

	loops := cfg.BatchLoops
	if loops <= 0 {
		loops = 1
	}

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "batch-worker-" + uuid.New().String()[:8]
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		logger:      logger.With(slog.String("worker_id", workerID)),
		source:      cfg.Source,
		runner:      cfg.Runner,
		batchLoops:  loops,
		workerID:    workerID,
		batchesChan: make(chan *submission),
	}, nil
}

// Start consumes submissions until ctx is canceled or the delivery channel
// closes, then waits for in-flight batches to settle
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker", slog.Int("batch_loops", w.batchLoops))

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnBatchLoops(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	close(w.batchesChan)
	w.wg.Wait()

	w.logger.Info("Worker stopped")
	return nil
}
