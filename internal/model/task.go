package model

import "time"

// Task outcome constants.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// TaskResult is the report produced when a background task finishes.
type TaskResult struct {
	ID         uint32    `json:"id"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS int       `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed reports whether the task did not complete successfully.
func (r TaskResult) Failed() bool {
	return r.Outcome != OutcomeCompleted
}

// ResultRecord is a TaskResult as persisted in the result ledger.
type ResultRecord struct {
	RecordID   string    `json:"record_id"`
	RecordedAt time.Time `json:"recorded_at"`
	TaskResult
}

// NewResultRecord wraps r in a ledger record with a fresh ID.
func NewResultRecord(r TaskResult) *ResultRecord {
	return &ResultRecord{
		RecordID:   NewID(),
		RecordedAt: time.Now().UTC(),
		TaskResult: r,
	}
}
