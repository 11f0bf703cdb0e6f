// Package history is the run journal: one row per build or push, so
// `bmad status` and `bmad history` can answer "what was synced where, when,
// and did it work" without re-reading destination trees.
package history

import "time"

// Stage names for Run.Stage.
const (
	StageBuild = "build"
	StagePush  = "push"
)

// Outcome values for Run.Outcome.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Run is one recorded pipeline operation.
type Run struct {
	ID        int64  `json:"id"`
	Stage     string `json:"stage"`
	Bundle    string `json:"bundle"`
	Project   string `json:"project,omitempty"` // empty for builds
	Written   int    `json:"written"`
	Deleted   int    `json:"deleted"`
	Preserved int    `json:"preserved"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"` // error text on failure
	CreatedAt string `json:"created_at"`       // RFC 3339 UTC
}

// Store is the journal facade. The CLI uses only this interface; the
// implementation is SQLite or in-memory.
type Store interface {
	RecordRun(r *Run) (int64, error)
	// ListRuns returns the most recent runs, newest first. limit <= 0
	// means no limit.
	ListRuns(limit int) ([]*Run, error)
	// ListRunsByProject filters to one destination project, newest first.
	ListRunsByProject(project string, limit int) ([]*Run, error)
	Close() error
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
