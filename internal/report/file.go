// Package report persists batch results: the append-only failure report and
// the batch run history.
package report

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/gofrs/flock"
)

const (
	reportTimeFormat = "2006-01-02 15:04:05"
	lockRetryDelay   = 50 * time.Millisecond
)

// FileExporter appends failure reports to a text file
type FileExporter struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewFileExporter creates a new file exporter writing to path
func NewFileExporter(path string, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the report file location
func (e *FileExporter) Path() string {
	return e.path
}

// Export appends one timestamped section to the report file. Nothing is
// written when the report has no failures.
func (e *FileExporter) Export(ctx context.Context, report domain.FailureReport) error {
	if len(report.Failures) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// Other processes may append to the same report.
	lock := flock.New(e.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock failure report: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock failure report: %s", e.path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("Failed to unlock failure report",
				slog.String("path", e.path),
				slog.String("error", err.Error()),
			)
		}
	}()

	file, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open failure report: %w", err)
	}

	w := bufio.NewWriter(file)
	writeSection(w, report, e.now())

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write failure report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close failure report: %w", err)
	}

	e.logger.Info("Failure report exported",
		slog.String("path", e.path),
		slog.Int("failures", len(report.Failures)),
	)

	return nil
}

func writeSection(w *bufio.Writer, report domain.FailureReport, at time.Time) {
	fmt.Fprintf(w, "\n=== Failed Downloads Report %s (run %s) ===\n", at.Format(reportTimeFormat), report.RunID)
	for _, rec := range report.Failures {
		fmt.Fprintf(w, "URL: %s\n", rec.URL)
		fmt.Fprintf(w, "Position: %d\n", rec.Position)
		fmt.Fprintf(w, "Error: %s\n", rec.Message)
		fmt.Fprintln(w, "---")
	}
}
