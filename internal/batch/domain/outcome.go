package domain

// Outcome is the result of one job. The zero value is a success.
type Outcome struct {
	failed  bool
	Message string
}

// Success returns a successful outcome
func Success() Outcome {
	return Outcome{}
}

// Failure returns a failed outcome carrying message
func Failure(message string) Outcome {
	return Outcome{failed: true, Message: message}
}

// FailureFromError builds a failed outcome from err
func FailureFromError(err error) Outcome {
	if err == nil {
		return Failure("unknown error")
	}
	return Failure(err.Error())
}

// Failed reports whether the job failed
func (o Outcome) Failed() bool {
	return o.failed
}

// FailureRecord is one entry of the failure report.
type FailureRecord struct {
	URL      string `json:"url" db:"url"`
	Position int    `json:"position" db:"position"`
	Message  string `json:"message" db:"message"`
}
