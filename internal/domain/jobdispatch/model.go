package jobdispatch

import "time"

type Status string

const (
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one audit record for a scheduled check-wins dispatch, keyed by the
// scheduler's dispatch id so retries collapse onto one row.
type Event struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Source       string
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
