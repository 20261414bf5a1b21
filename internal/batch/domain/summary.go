package domain

import "time"

// Summary is the final result of one batch run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Completed  int
	Failed     int
	PeakActive int64
	Failures   []FailureRecord
}

// Succeeded returns the number of jobs that completed without error
func (s *Summary) Succeeded() int {
	return s.Completed - s.Failed
}

// Elapsed returns the wall-clock duration of the batch
func (s *Summary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
