package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/media-batch/internal/api/dto"
	"github.com/cuongbtq/media-batch/internal/api/handler"
	"github.com/cuongbtq/media-batch/internal/report"
	workerdomain "github.com/cuongbtq/media-batch/internal/worker/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	runA = "2b1c4f7e-8d6a-4a1f-9b3e-5c2d7e8f9a01"
	runB = "7d3e9a10-1c2b-4f5e-8a6d-0b9c8e7f6a52"
)

type fakeStore struct {
	runs       []report.RunRow
	failures   map[string][]report.FailureRow
	err        error
	lastFilter report.RunFilter
}

func (f *fakeStore) ListRuns(ctx context.Context, filter report.RunFilter) ([]report.RunRow, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	runs := f.runs
	if len(runs) > filter.PageSize+1 {
		runs = runs[:filter.PageSize+1]
	}
	return runs, nil
}

func (f *fakeStore) GetRun(ctx context.Context, runID string) (*report.RunRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].RunID == runID {
			return &f.runs[i], nil
		}
	}
	return nil, report.ErrRunNotFound
}

func (f *fakeStore) ListFailures(ctx context.Context, runID string) ([]report.FailureRow, error) {
	return f.failures[runID], nil
}

type fakePublisher struct {
	messageID string
	payload   any
	err       error
}

func (f *fakePublisher) PublishJSON(ctx context.Context, messageID string, v any) error {
	f.messageID = messageID
	f.payload = v
	return f.err
}

func newTestRouter(store *fakeStore, pub *fakePublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(&handler.Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:     store,
		Publisher: pub,
	})
}

func sampleRuns() []report.RunRow {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []report.RunRow{
		{RunID: runB, StartedAt: started.Add(time.Hour), FinishedAt: started.Add(2 * time.Hour), TotalItems: 2, Completed: 2},
		{RunID: runA, StartedAt: started, FinishedAt: started.Add(time.Minute), TotalItems: 5, Completed: 5, Failed: 2, PeakActive: 2},
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeStore{}, &fakePublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSubmitBatch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		publishErr error
		wantStatus int
	}{
		{
			name:       "queued",
			body:       `{"urls":["https://example.com/watch/v1","https://example.com/watch/v2"]}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "empty list",
			body:       `{"urls":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not a url",
			body:       `{"urls":["not a url"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"urls":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "queue unavailable",
			body:       `{"urls":["https://example.com/watch/v1"]}`,
			publishErr: errors.New("not connected to RabbitMQ"),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{err: tt.publishErr}
			r := newTestRouter(&fakeStore{}, pub)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusAccepted {
				return
			}

			var resp dto.SubmitBatchResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Items)
			assert.Equal(t, resp.BatchID, pub.messageID)

			msg, ok := pub.payload.(workerdomain.SubmissionMessage)
			require.True(t, ok)
			assert.Equal(t, resp.BatchID, msg.BatchID)
			assert.Len(t, msg.URLs, 2)
		})
	}
}

func TestGetBatch(t *testing.T) {
	store := &fakeStore{
		runs: sampleRuns(),
		failures: map[string][]report.FailureRow{
			runA: {
				{RunID: runA, Position: 2, URL: "https://example.com/watch/v2", Message: "failed to resolve metadata"},
				{RunID: runA, Position: 4, URL: "https://example.com/watch/v4", Message: "no audio or video format available"},
			},
		},
	}
	r := newTestRouter(store, &fakePublisher{})

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+runA, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.BatchDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, runA, resp.BatchID)
		assert.Equal(t, 3, resp.Succeeded)
		assert.Equal(t, 2, resp.Failed)
		require.Len(t, resp.Failures, 2)
		assert.Equal(t, 4, resp.Failures[1].Position)
	})

	t.Run("unknown", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches/0e2f4c1a-9b8d-4a7e-b6c5-d4e3f2a1b0c9", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches/batch-1", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetBatch_StoreError(t *testing.T) {
	r := newTestRouter(&fakeStore{err: errors.New("connection refused")}, &fakePublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+runA, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListBatches(t *testing.T) {
	store := &fakeStore{runs: sampleRuns()}
	r := newTestRouter(store, &fakePublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches?page_size=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var first dto.ListBatchesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Batches, 1)
	assert.Equal(t, runB, first.Batches[0].BatchID)
	require.NotEmpty(t, first.NextCursor)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches?page_size=1&cursor="+first.NextCursor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.lastFilter.Cursor)
	assert.Equal(t, runB, store.lastFilter.Cursor.RunID)
}

func TestListBatches_PageSizeBounds(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "default", query: "", want: 20},
		{name: "capped", query: "?page_size=500", want: 100},
		{name: "explicit", query: "?page_size=5", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			r := newTestRouter(store, &fakePublisher{})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, store.lastFilter.PageSize)
			assert.Contains(t, w.Body.String(), `"batches":[]`)
		})
	}
}

func TestListBatches_InvalidCursor(t *testing.T) {
	r := newTestRouter(&fakeStore{}, &fakePublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batches?cursor=%25%25", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(&fakeStore{}, &fakePublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/batches", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
