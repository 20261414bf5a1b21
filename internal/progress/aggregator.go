package progress

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
)

// Progress is a point-in-time copy of the aggregator state
type Progress struct {
	Total     int
	Completed int
	Failed    int
	Failures  []domain.FailureRecord
	StartedAt time.Time
}

// Succeeded returns the number of successful jobs so far
func (p Progress) Succeeded() int {
	return p.Completed - p.Failed
}

// Elapsed returns the time since the batch started
func (p Progress) Elapsed() time.Duration {
	return time.Since(p.StartedAt)
}

// Remaining estimates the time left from the average job duration so far.
// Returns 0 until at least one job has completed.
func (p Progress) Remaining() time.Duration {
	return estimateRemaining(p.Elapsed(), p.Completed, p.Total)
}

// Percent returns completion as a percentage of the batch
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// Aggregator records job outcomes for one batch. It is safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	failures  []domain.FailureRecord
	startedAt time.Time
	logger    *slog.Logger
	now       func() time.Time
}

// NewAggregator creates an aggregator for a batch of total items
func NewAggregator(total int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		total:     total,
		startedAt: time.Now(),
		logger:    logger,
		now:       time.Now,
	}
}

// RecordOutcome counts one finished job. Counters only ever grow.
func (a *Aggregator) RecordOutcome(item domain.WorkItem, outcome domain.Outcome) error {
	a.mu.Lock()
	if a.completed >= a.total {
		a.mu.Unlock()
		return domain.ErrProgressOverflow
	}
	a.completed++
	if outcome.Failed() {
		a.failed++
		a.failures = append(a.failures, domain.FailureRecord{
			URL:      item.URL,
			Position: item.Position,
			Message:  outcome.Message,
		})
	}
	completed, failed, total := a.completed, a.failed, a.total
	elapsed := a.now().Sub(a.startedAt)
	a.mu.Unlock()

	// Logged outside the lock: each line is consistent in itself, but lines
	// from concurrent completions may be written out of order.
	a.logger.Info("Batch progress",
		slog.Int("completed", completed),
		slog.Int("total", total),
		slog.String("percent", formatPercent(completed, total)),
		slog.Duration("elapsed", elapsed.Round(100*time.Millisecond)),
		slog.Duration("remaining", estimateRemaining(elapsed, completed, total).Round(100*time.Millisecond)),
		slog.Int("succeeded", completed-failed),
		slog.Int("failed", failed),
	)

	return nil
}

// Snapshot returns a copy of the current state
func (a *Aggregator) Snapshot() Progress {
	a.mu.Lock()
	defer a.mu.Unlock()

	failures := make([]domain.FailureRecord, len(a.failures))
	copy(failures, a.failures)

	return Progress{
		Total:     a.total,
		Completed: a.completed,
		Failed:    a.failed,
		Failures:  failures,
		StartedAt: a.startedAt,
	}
}

func estimateRemaining(elapsed time.Duration, completed, total int) time.Duration {
	if completed <= 0 || completed >= total {
		return 0
	}
	perJob := elapsed / time.Duration(completed)
	return perJob * time.Duration(total-completed)
}

func formatPercent(completed, total int) string {
	if total == 0 {
		return "100.0%"
	}
	return strconv.FormatFloat(float64(completed)/float64(total)*100, 'f', 1, 64) + "%"
}
