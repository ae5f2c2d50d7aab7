// internal/types/models.go
package types

import (
	"time"
)

// RawMessage is one chat event as received from the source. Timestamp is
// the source's textual decimal seconds since epoch (Slack "ts").
type RawMessage struct {
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
}

// Document is the rendered daily log submitted to the store.
type Document struct {
	Name   string `json:"name"`
	BodyMD string `json:"body_md"`
	WIP    bool   `json:"wip"`
}

// Published describes a document accepted by the store.
type Published struct {
	Number int    `json:"number,omitempty"`
	URL    string `json:"url,omitempty"`
}

type RunStatus string

const (
	RunPublished RunStatus = "published"
	RunNoLogs    RunStatus = "no_logs"
	RunDryRun    RunStatus = "dry_run"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one entry in the run ledger. It never carries document bodies.
type RunRecord struct {
	ID           RunID     `json:"id"`
	Trigger      string    `json:"trigger"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Date         string    `json:"date"`
	Status       RunStatus `json:"status"`
	MessageCount int       `json:"message_count"`
	DocumentName string    `json:"document_name,omitempty"`
	URL          string    `json:"url,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
}
