package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ContentType is the content type of batch submission messages
const ContentType = "application/json"

// SubmissionMessage is the body of a batch submission published to RabbitMQ
type SubmissionMessage struct {
	BatchID string   `json:"batch_id"`
	URLs    []string `json:"urls"`
}

// Submission is a parsed message together with its delivery tag
type Submission struct {
	BatchID     string
	URLs        []string
	DeliveryTag uint64
}

// ParseSubmission decodes and validates a message body
func ParseSubmission(body []byte) (*SubmissionMessage, error) {
	var msg SubmissionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if _, err := uuid.Parse(msg.BatchID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBatchID, msg.BatchID)
	}

	return &msg, nil
}
