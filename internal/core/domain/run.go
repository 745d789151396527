package domain

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusStalled   RunStatus = "STALLED"
)

// ExtractionRun tracks one end-to-end attempt to process a document's pages.
// The worker heartbeats the row after every page so the sweeper can tell a
// slow run from one whose process died mid-flight.
type ExtractionRun struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	Attempt     int        `json:"attempt"`
	Status      RunStatus  `json:"status"`
	PagesTotal  int        `json:"pages_total"`
	PagesDone   int        `json:"pages_done"`
	Error       string     `json:"error,omitempty"`
	HeartbeatAt time.Time  `json:"heartbeat_at"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
