package domain

import "errors"

var (
	// ErrInvalidConcurrency is returned when the concurrency limit is not positive
	ErrInvalidConcurrency = errors.New("concurrency limit must be greater than 0")

	// ErrMetadata is returned when item metadata cannot be resolved
	ErrMetadata = errors.New("failed to resolve metadata")

	// ErrSubResource is returned when an audio or video stream cannot be fetched
	ErrSubResource = errors.New("failed to fetch sub-resource")

	// ErrCombine is returned when the fetched streams cannot be combined
	ErrCombine = errors.New("failed to combine streams")

	// ErrNoSubResources is returned when metadata exposes neither audio nor video
	ErrNoSubResources = errors.New("no audio or video format available")

	// ErrCanceled is returned for items that never started because the batch was canceled
	ErrCanceled = errors.New("batch canceled before job started")

	// ErrProgressOverflow is returned when more outcomes are recorded than items exist
	ErrProgressOverflow = errors.New("more outcomes recorded than items in batch")
)

// SetupError wraps failures that abort a batch before any job runs
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return "setup failed: " + e.Op + ": " + e.Err.Error()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// NewSetupError creates a new setup error
func NewSetupError(op string, err error) error {
	return &SetupError{Op: op, Err: err}
}
