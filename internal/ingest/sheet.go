// Package ingest loads batch URL lists from a published spreadsheet or from
// local text files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultExportBase = "https://docs.google.com/spreadsheets/d"
	debugPreviewLines = 3
)

var (
	// ErrInvalidSheetURL is returned when no sheet id can be derived from the URL
	ErrInvalidSheetURL = errors.New("invalid sheet url")
	// ErrNoURLs is returned when a source yields no usable URL
	ErrNoURLs = errors.New("no valid URLs found")
)

// SheetClient fetches URL lists from published spreadsheets
type SheetClient struct {
	httpClient *http.Client
	exportBase string
	logger     *slog.Logger
}

// NewSheetClient creates a new SheetClient instance
func NewSheetClient(timeout time.Duration, logger *slog.Logger) *SheetClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetClient{
		httpClient: &http.Client{Timeout: timeout},
		exportBase: defaultExportBase,
		logger:     logger,
	}
}

// ExportURL derives the CSV export location of the first worksheet
func (c *SheetClient) ExportURL(sheetURL string) (string, error) {
	id, err := sheetID(sheetURL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/export?format=csv&gid=0", c.exportBase, id), nil
}

// FetchURLs downloads the sheet as CSV and returns one URL per non-blank line
func (c *SheetClient) FetchURLs(ctx context.Context, sheetURL string) ([]string, error) {
	exportURL, err := c.ExportURL(sheetURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetching sheet", slog.String("export_url", exportURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch sheet: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet content: %w", err)
	}

	urls := parseLines(string(body))
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w in sheet", ErrNoURLs)
	}

	c.logger.Info("Loaded URLs from sheet",
		slog.Int("bytes", len(body)),
		slog.Int("urls", len(urls)),
	)
	for i, u := range urls {
		if i >= debugPreviewLines {
			break
		}
		c.logger.Debug("Sheet URL", slog.Int("position", i+1), slog.String("job_url", u))
	}

	return urls, nil
}

// sheetID returns the path segment following "/d/"
func sheetID(sheetURL string) (string, error) {
	u, err := url.Parse(sheetURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSheetURL, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "d" && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidSheetURL, sheetURL)
}

func parseLines(content string) []string {
	var urls []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}
