package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/media-batch/internal/report"
	"github.com/google/uuid"
)

// DecodeRunCursor parses an opaque page cursor. An empty string means the
// first page.
func DecodeRunCursor(cursorStr string) (*report.RunCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var startedAt int64
	if _, err := fmt.Sscanf(parts[0], "%d", &startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at in cursor: %w", err)
	}

	if _, err := uuid.Parse(parts[1]); err != nil {
		return nil, fmt.Errorf("invalid run id in cursor: %w", err)
	}

	return &report.RunCursor{
		StartedAt: time.Unix(0, startedAt).UTC(),
		RunID:     parts[1],
	}, nil
}

// EncodeRunCursor builds the cursor that resumes after run
func EncodeRunCursor(cursor *report.RunCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.StartedAt.UnixNano(), cursor.RunID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
