package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/progress"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// FailureExporter persists the failures of a finished batch
type FailureExporter interface {
	Export(ctx context.Context, report domain.FailureReport) error
}

// RunRecorder stores the summary of a finished batch
type RunRecorder interface {
	RecordRun(ctx context.Context, summary *domain.Summary) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Logger      *slog.Logger
	Runner      JobRunner
	Concurrency int
	Exporter    FailureExporter
	Recorder    RunRecorder
}

// Scheduler runs a batch of jobs with at most Concurrency executing at once
type Scheduler struct {
	logger      *slog.Logger
	runner      JobRunner
	concurrency int
	exporter    FailureExporter
	recorder    RunRecorder
	active      ActiveCounter
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if cfg.Concurrency <= 0 {
		return nil, domain.ErrInvalidConcurrency
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("job runner is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		logger:      logger,
		runner:      cfg.Runner,
		concurrency: cfg.Concurrency,
		exporter:    cfg.Exporter,
		recorder:    cfg.Recorder,
	}, nil
}

// Active returns the number of jobs currently executing across all runs
func (s *Scheduler) Active() int64 {
	return s.active.Current()
}

// Run executes every item and returns once all of them have reported an
// outcome. Individual job failures are recorded in the summary and never
// returned as an error.
func (s *Scheduler) Run(ctx context.Context, items []domain.WorkItem) (*domain.Summary, error) {
	return s.RunBatch(ctx, uuid.New().String(), items)
}

// RunBatch is Run with a caller supplied run id
func (s *Scheduler) RunBatch(ctx context.Context, runID string, items []domain.WorkItem) (*domain.Summary, error) {
	if runID == "" {
		return nil, domain.NewSetupError("run id", fmt.Errorf("run id is required"))
	}
	logger := s.logger.With(slog.String("run_id", runID))

	summary := &domain.Summary{
		RunID:     runID,
		StartedAt: time.Now(),
		Total:     len(items),
	}

	if len(items) == 0 {
		summary.FinishedAt = time.Now()
		logger.Info("No items to process")
		return summary, nil
	}

	logger.Info("Starting batch",
		slog.Int("items", len(items)),
		slog.Int("concurrency", s.concurrency),
	)

	agg := progress.NewAggregator(len(items), logger)
	sem := semaphore.NewWeighted(int64(s.concurrency))
	runActive := &ActiveCounter{}

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item domain.WorkItem) {
			defer wg.Done()
			outcome := s.runTask(ctx, logger, sem, runActive, domain.Job{RunID: runID, Item: item})
			if err := agg.RecordOutcome(item, outcome); err != nil {
				logger.Error("Failed to record job outcome",
					slog.Int("position", item.Position),
					slog.String("error", err.Error()),
				)
			}
		}(item)
	}
	wg.Wait()

	snap := agg.Snapshot()
	summary.FinishedAt = time.Now()
	summary.Completed = snap.Completed
	summary.Failed = snap.Failed
	summary.Failures = snap.Failures
	summary.PeakActive = runActive.Peak()

	logger.Info("Batch summary",
		slog.Duration("total_time", summary.Elapsed().Round(100*time.Millisecond)),
		slog.Int("succeeded", summary.Succeeded()),
		slog.Int("failed", summary.Failed),
		slog.Int64("peak_active", summary.PeakActive),
	)

	s.finish(ctx, logger, summary)

	return summary, nil
}

// runTask waits for an admission slot and executes one job
func (s *Scheduler) runTask(ctx context.Context, logger *slog.Logger, sem *semaphore.Weighted, runActive *ActiveCounter, job domain.Job) domain.Outcome {
	if err := sem.Acquire(ctx, 1); err != nil {
		logger.Warn("Job not started",
			slog.Int("position", job.Item.Position),
			slog.String("job_url", job.Item.URL),
			slog.String("error", err.Error()),
		)
		return domain.FailureFromError(fmt.Errorf("%w: %w", domain.ErrCanceled, err))
	}
	defer sem.Release(1)

	return s.execute(ctx, logger, runActive, job)
}

// execute runs the job while it is counted as active. A panic inside the
// runner fails only this job.
func (s *Scheduler) execute(ctx context.Context, logger *slog.Logger, runActive *ActiveCounter, job domain.Job) (outcome domain.Outcome) {
	defer s.active.Enter()()
	defer runActive.Enter()()

	start := time.Now()
	logger.Info("Starting job",
		slog.Int("position", job.Item.Position),
		slog.String("job_url", job.Item.URL),
	)

	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failure(fmt.Sprintf("job panicked: %v", r))
		}

		if outcome.Failed() {
			logger.Error("Job failed",
				slog.Int("position", job.Item.Position),
				slog.String("job_url", job.Item.URL),
				slog.String("error", outcome.Message),
			)
			return
		}
		logger.Info("Job completed",
			slog.Int("position", job.Item.Position),
			slog.Duration("duration", time.Since(start).Round(100*time.Millisecond)),
		)
	}()

	return s.runner.Run(ctx, job)
}

// finish exports failures and records the run. Errors here never change the summary.
func (s *Scheduler) finish(ctx context.Context, logger *slog.Logger, summary *domain.Summary) {
	// The batch result must persist even when the batch context was canceled.
	ctx = context.WithoutCancel(ctx)

	if s.exporter != nil && len(summary.Failures) > 0 {
		report := domain.FailureReport{
			RunID:     summary.RunID,
			StartedAt: summary.StartedAt,
			Failures:  summary.Failures,
		}
		if err := s.exporter.Export(ctx, report); err != nil {
			logger.Error("Failed to export failure report",
				slog.String("error", err.Error()),
			)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.RecordRun(ctx, summary); err != nil {
			logger.Error("Failed to record batch run",
				slog.String("error", err.Error()),
			)
		}
	}
}
