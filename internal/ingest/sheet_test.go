package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *SheetClient {
	client := NewSheetClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.exportBase = serverURL
	return client
}

func TestSheetClient_ExportURL(t *testing.T) {
	client := NewSheetClient(time.Second, nil)

	tests := []struct {
		name     string
		sheetURL string
		want     string
		wantErr  bool
	}{
		{
			name:     "edit link",
			sheetURL: "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0",
			want:     "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=0",
		},
		{
			name:     "bare link",
			sheetURL: "https://docs.google.com/spreadsheets/d/abc123",
			want:     "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=0",
		},
		{
			name:     "missing id",
			sheetURL: "https://docs.google.com/spreadsheets/",
			wantErr:  true,
		},
		{
			name:     "unparsable",
			sheetURL: "://bad",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ExportURL(tt.sheetURL)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSheetURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSheetClient_FetchURLs(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("https://example.com/watch/v1\r\n\n  https://example.com/watch/v2  \n\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	urls, err := client.FetchURLs(context.Background(), "https://docs.google.com/spreadsheets/d/sheet42/edit")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/watch/v1", "https://example.com/watch/v2"}, urls)
	assert.Equal(t, "/sheet42/export", gotPath)
	assert.Equal(t, "format=csv&gid=0", gotQuery)
}

func TestSheetClient_FetchURLsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errIs  error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "not found", status: http.StatusNotFound},
		{name: "empty sheet", status: http.StatusOK, body: "\n  \n", errIs: ErrNoURLs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			urls, err := client.FetchURLs(context.Background(), "https://docs.google.com/spreadsheets/d/x/edit")

			require.Error(t, err)
			assert.Nil(t, urls)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}
