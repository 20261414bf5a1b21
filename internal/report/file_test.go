package report

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport(runID string) domain.FailureReport {
	return domain.FailureReport{
		RunID:     runID,
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Failures: []domain.FailureRecord{
			{URL: "https://example.com/watch/v2", Position: 2, Message: "failed to resolve metadata: not found"},
			{URL: "https://example.com/watch/v4", Position: 4, Message: "no audio or video format available"},
		},
	}
}

func TestFileExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "failed.txt")
	exporter := NewFileExporter(path, discardLogger())
	exporter.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 5, 30, 0, time.UTC)
	}

	require.NoError(t, exporter.Export(context.Background(), sampleReport("run-1")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := "\n=== Failed Downloads Report 2024-03-01 10:05:30 (run run-1) ===\n" +
		"URL: https://example.com/watch/v2\n" +
		"Position: 2\n" +
		"Error: failed to resolve metadata: not found\n" +
		"---\n" +
		"URL: https://example.com/watch/v4\n" +
		"Position: 4\n" +
		"Error: no audio or video format available\n" +
		"---\n"
	assert.Equal(t, expected, string(data))
}

func TestFileExporter_AppendsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	exporter := NewFileExporter(path, discardLogger())

	require.NoError(t, exporter.Export(context.Background(), sampleReport("run-1")))
	require.NoError(t, exporter.Export(context.Background(), sampleReport("run-2")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Equal(t, 2, strings.Count(content, "=== Failed Downloads Report"))
	assert.Less(t, strings.Index(content, "(run run-1)"), strings.Index(content, "(run run-2)"))
	assert.Equal(t, 4, strings.Count(content, "---\n"))
}

func TestFileExporter_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	exporter := NewFileExporter(path, discardLogger())

	err := exporter.Export(context.Background(), domain.FailureReport{RunID: "run-1"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
