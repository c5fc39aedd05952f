// Package store persists the history of finished sweep jobs. The live
// registry is intentionally process-local; this history is what survives
// a restart, alongside the run folders themselves.
package store

import (
	"time"
)

// Store is the persistence interface for finished sweep executions.
type Store interface {
	// SaveExecution persists one terminal execution record. Saving the
	// same job id again overwrites the previous record.
	SaveExecution(exec *Execution) error

	// GetExecution retrieves one execution by job id.
	GetExecution(jobID string) (*Execution, error)

	// ListExecutions retrieves the most recent executions, up to limit,
	// ordered by StartedAt descending.
	ListExecutions(limit int) ([]*Execution, error)

	// ListByStatus retrieves the most recent executions with the given
	// terminal status, up to limit, ordered by StartedAt descending.
	ListByStatus(status string, limit int) ([]*Execution, error)

	// Close releases any resources held by the store.
	Close() error
}

// Execution is one finished sweep job. Records are written exactly once,
// when the job reaches a terminal state.
type Execution struct {
	// JobID is the identifier the job carried in the live registry.
	JobID string `json:"job_id"`

	// DisplayName is the optional human-readable sweep name.
	DisplayName string `json:"display_name,omitempty"`

	// RunFolder is where the sweep wrote its outputs. The folder can be
	// inspected long after this process is gone.
	RunFolder string `json:"run_folder"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Status is the terminal state: completed, cancelled or failed.
	Status string `json:"status"`

	// Error is the captured failure text for failed executions.
	Error string `json:"error,omitempty"`
}

// Duration returns the wall-clock time from start to the terminal state.
func (e *Execution) Duration() time.Duration {
	if e.EndedAt.IsZero() {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}
