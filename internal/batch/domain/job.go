package domain

import "time"

// Job is one work item scheduled within a specific batch run
type Job struct {
	RunID string
	Item  WorkItem
}

// RunToken returns a short run-scoped token used to namespace job files
func (j Job) RunToken() string {
	if len(j.RunID) > 8 {
		return j.RunID[:8]
	}
	return j.RunID
}

// FailureReport is the set of failures exported at the end of a batch
type FailureReport struct {
	RunID     string
	StartedAt time.Time
	Failures  []FailureRecord
}
