package models

import "time"

// Run statuses as stored in the audit log.
const (
	RunStatusRunning = "RUNNING"
	RunStatusOK      = "OK"
	RunStatusFailed  = "FAILED"
	RunStatusAborted = "ABORTED" // duplicate visit date, nothing written
)

// Run event stages, one per pipeline step.
const (
	StageRead     = "READ"
	StageClassify = "CLASSIFY"
	StageLocate   = "LOCATE"
	StageUpdate   = "UPDATE"
	StageNotify   = "NOTIFY"
	StageError    = "ERROR"
)

// Run is one end-to-end processing of a maintenance report.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	DeviceID   string     `json:"device_id,omitempty"`
	Location   string     `json:"location,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RunEvent is a single audit entry within a run.
type RunEvent struct {
	EventID    string    `json:"event_id"`
	RunID      string    `json:"run_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Stage      string    `json:"stage"` // READ | CLASSIFY | LOCATE | UPDATE | NOTIFY | ERROR
	Message    string    `json:"message"`
}

// RunSummary is what callers of the pipeline get back.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	DeviceID  string        `json:"device_id"`
	Location  string        `json:"location"`
	VisitDate time.Time     `json:"visit_date"`
	Incidents []IncidentTag `json:"incidents"`
	Errors    []IncidentTag `json:"errors"`
}
