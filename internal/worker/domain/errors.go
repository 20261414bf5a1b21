package domain

import "errors"

var (
	// ErrMalformedMessage is returned when a message body is not valid JSON
	ErrMalformedMessage = errors.New("malformed batch message")

	// ErrInvalidBatchID is returned when batch_id is not a UUID
	ErrInvalidBatchID = errors.New("invalid batch_id")

	// ErrBatchInterrupted is returned when the worker stops before a batch settles
	ErrBatchInterrupted = errors.New("batch interrupted by shutdown")
)
