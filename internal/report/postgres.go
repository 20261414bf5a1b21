package report

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a batch run cannot be found in the database
var ErrRunNotFound = errors.New("batch run not found")

// RunRow is one row of batch_runs
type RunRow struct {
	RunID      string    `db:"run_id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	TotalItems int       `db:"total_items"`
	Completed  int       `db:"completed"`
	Failed     int       `db:"failed"`
	PeakActive int64     `db:"peak_active"`
}

// FailureRow is one row of batch_failures
type FailureRow struct {
	RunID      string    `db:"run_id"`
	Position   int       `db:"position"`
	URL        string    `db:"url"`
	Message    string    `db:"message"`
	ExportedAt time.Time `db:"exported_at"`
}

// RunFilter selects a page of batch runs
type RunFilter struct {
	PageSize int
	Cursor   *RunCursor
}

// RunCursor marks the last run of the previous page
type RunCursor struct {
	StartedAt time.Time
	RunID     string
}

// PostgresStore stores failure reports and batch run history in PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the report tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create report schema: %w", err)
	}
	return nil
}

// RecordRun stores the summary of a finished batch together with its
// failures. A redelivered batch reuses its run id, so an earlier attempt of
// the same run is replaced rather than duplicated.
func (s *PostgresStore) RecordRun(ctx context.Context, summary *domain.Summary) error {
	upsertRun := `
		INSERT INTO batch_runs (
			run_id, started_at, finished_at, total_items,
			completed, failed, peak_active
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			total_items = EXCLUDED.total_items,
			completed = EXCLUDED.completed,
			failed = EXCLUDED.failed,
			peak_active = EXCLUDED.peak_active
	`
	deleteFailures := `DELETE FROM batch_failures WHERE run_id = $1`
	insertFailure := `
		INSERT INTO batch_failures (run_id, position, url, message, exported_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		upsertRun,
		summary.RunID,
		summary.StartedAt,
		summary.FinishedAt,
		summary.Total,
		summary.Completed,
		summary.Failed,
		summary.PeakActive,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record batch run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteFailures, summary.RunID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear previous failure records: %w", err)
	}

	exportedAt := time.Now()
	for _, rec := range summary.Failures {
		if _, err := tx.ExecContext(ctx, insertFailure, summary.RunID, rec.Position, rec.URL, rec.Message, exportedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert failure record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch run: %w", err)
	}

	s.logger.Info("Batch run stored",
		slog.String("run_id", summary.RunID),
		slog.Int("failures", len(summary.Failures)),
	)

	return nil
}

// GetRun retrieves a batch run by its ID
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*RunRow, error) {
	query := `
		SELECT run_id, started_at, finished_at, total_items, completed, failed, peak_active
		FROM batch_runs
		WHERE run_id = $1
	`

	var run RunRow
	if err := s.db.GetContext(ctx, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get batch run: %w", err)
	}

	return &run, nil
}

// ListRuns returns runs newest first. One extra row is fetched so callers can
// tell whether another page exists.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRow, error) {
	query := `
		SELECT run_id, started_at, finished_at, total_items, completed, failed, peak_active
		FROM batch_runs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (started_at, run_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.StartedAt, filter.Cursor.RunID)
		argIdx += 2
	}

	query += " ORDER BY started_at DESC, run_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var runs []RunRow
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}

	return runs, nil
}

// ListFailures returns every failure exported for a run in batch order
func (s *PostgresStore) ListFailures(ctx context.Context, runID string) ([]FailureRow, error) {
	query := `
		SELECT run_id, position, url, message, exported_at
		FROM batch_failures
		WHERE run_id = $1
		ORDER BY exported_at, position
	`

	var failures []FailureRow
	if err := s.db.SelectContext(ctx, &failures, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}

	return failures, nil
}
