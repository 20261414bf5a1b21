package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		urls    int
	}{
		{
			name: "valid",
			body: `{"batch_id":"6f1c2a0e-4b7d-4e8a-9c3f-2d1e0b9a8c7d","urls":["https://example.com/watch/v1","https://example.com/watch/v2"]}`,
			urls: 2,
		},
		{
			name: "no urls",
			body: `{"batch_id":"6f1c2a0e-4b7d-4e8a-9c3f-2d1e0b9a8c7d"}`,
		},
		{
			name:    "malformed json",
			body:    `{"batch_id":`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "bad batch id",
			body:    `{"batch_id":"batch-1","urls":["https://example.com/watch/v1"]}`,
			wantErr: ErrInvalidBatchID,
		},
		{
			name:    "missing batch id",
			body:    `{"urls":["https://example.com/watch/v1"]}`,
			wantErr: ErrInvalidBatchID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseSubmission([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, msg.URLs, tt.urls)
		})
	}
}
