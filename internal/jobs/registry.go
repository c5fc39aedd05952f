// Package jobs tracks in-flight and finished background sweeps for the
// lifetime of one process. The registry is deliberately not persisted:
// after a restart, old runs are recovered only through the disk scanner.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// Status is the lifecycle state of a registered job. A job starts
// running and moves to exactly one terminal state; terminal states never
// transition further.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Handle is the live, cancellable reference to a job's background task.
// The execution engine provides the implementation; the registry only
// consumes this interface.
type Handle interface {
	// Done reports whether the task has finished. Never blocks.
	Done() bool
	// Result is defined only once Done reports true.
	Result() (map[string]any, error)
	// Err returns the terminal error, nil while running or on success.
	Err() error
	// Cancel requests cooperative cancellation.
	Cancel()
	// Wait blocks until the task finishes or ctx is cancelled.
	Wait(ctx context.Context) error
	// Snapshot returns current per-output progress counters.
	Snapshot() map[string]runs.Counters
}

// Record is one registered job. Values returned by the registry are
// snapshots; the registry owns the stored record exclusively.
type Record struct {
	JobID       string     `json:"job_id"`
	DisplayName string     `json:"display_name,omitempty"`
	RunFolder   string     `json:"run_folder"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Status      Status     `json:"status"`
	// Error holds the captured task failure as a string. It is surfaced
	// in responses, never re-raised.
	Error string `json:"error,omitempty"`

	Handle Handle `json:"-"`
}

// NewJobID returns a fresh job identifier, unique for the process lifetime.
func NewJobID() string {
	return uuid.New().String()
}

// Registry is the process-wide job table. A single instance is
// constructed at startup and injected into every operation handler.
// All methods are safe for concurrent use and none blocks on a job's
// completion.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string

	onTerminal func(Record)
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// SetOnTerminal installs a hook invoked exactly once per job, when the
// job's record first reaches a terminal state. The hook runs on its own
// goroutine and receives a snapshot.
func (r *Registry) SetOnTerminal(fn func(Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTerminal = fn
}

// Register stores a new running job under a freshly generated id.
func (r *Registry) Register(h Handle, runFolder, displayName string) string {
	return r.RegisterID(NewJobID(), h, runFolder, displayName)
}

// RegisterID stores a new running job under a caller-generated id. The
// launcher uses this so the default run folder can embed the id before
// the background task is started.
func (r *Registry) RegisterID(jobID string, h Handle, runFolder, displayName string) string {
	rec := &Record{
		JobID:       jobID,
		DisplayName: displayName,
		RunFolder:   runFolder,
		StartedAt:   time.Now().UTC(),
		Status:      StatusRunning,
		Handle:      h,
	}

	r.mu.Lock()
	r.records[jobID] = rec
	r.order = append(r.order, jobID)
	r.mu.Unlock()

	r.logger.Info("job registered",
		"job_id", jobID,
		"run_folder", runFolder,
		"display_name", displayName)

	return jobID
}

// Get returns a snapshot of one job.
func (r *Registry) Get(jobID string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[jobID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// List returns snapshots of every job in insertion order. The registry
// never evicts on its own; see Prune for opt-in retention.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Resolve refreshes a job's stored status from its handle: a running
// record whose task has finished moves to completed or failed. Returns
// the post-resolution snapshot.
func (r *Registry) Resolve(jobID string) (Record, bool) {
	r.mu.RLock()
	rec, ok := r.records[jobID]
	if !ok {
		r.mu.RUnlock()
		return Record{}, false
	}
	status := rec.Status
	handle := rec.Handle
	r.mu.RUnlock()

	if status == StatusRunning && handle.Done() {
		if err := handle.Err(); err != nil {
			r.markTerminal(jobID, StatusFailed, err.Error())
		} else {
			r.markTerminal(jobID, StatusCompleted, "")
		}
	}
	return r.Get(jobID)
}

// MarkCancelled moves a running job to cancelled. No-op when the job is
// absent or already terminal.
func (r *Registry) MarkCancelled(jobID string) bool {
	return r.markTerminal(jobID, StatusCancelled, "")
}

// Cancel requests cooperative cancellation of a running job and records
// the cancelled state. A job that already finished on its own, even if
// the registry had not observed it yet, reports ErrAlreadyTerminal and
// keeps its original terminal state. Cancel returns promptly; it never
// waits for in-flight work to stop.
func (r *Registry) Cancel(jobID string) (Record, error) {
	rec, ok := r.Resolve(jobID)
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.Status != StatusRunning {
		return rec, ErrAlreadyTerminal
	}

	// Record cancelled before signalling the handle. A watcher blocked on
	// the handle wakes up the instant cancellation lands; marking first
	// keeps it from recording the cancellation-induced failure as the
	// terminal state.
	if !r.markTerminal(jobID, StatusCancelled, "") {
		rec, _ = r.Get(jobID)
		return rec, ErrAlreadyTerminal
	}
	rec.Handle.Cancel()

	rec, _ = r.Get(jobID)
	return rec, nil
}

// markTerminal performs the only allowed transition, running to
// terminal, atomically. The first terminal transition wins; a record can
// therefore never report two terminal states. Returns true when the
// transition happened.
func (r *Registry) markTerminal(jobID string, status Status, errMsg string) bool {
	r.mu.Lock()
	rec, ok := r.records[jobID]
	if !ok || rec.Status != StatusRunning {
		r.mu.Unlock()
		return false
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.EndedAt = &now
	rec.Error = errMsg
	snapshot := *rec
	hook := r.onTerminal
	r.mu.Unlock()

	r.logger.Info("job finished",
		"job_id", jobID,
		"status", status,
		"error", errMsg)

	if hook != nil {
		go hook(snapshot)
	}
	return true
}

// Prune removes terminal records older than maxAge, measured from the
// moment the terminal state was observed. Running jobs are never pruned.
// Returns the number of records removed.
func (r *Registry) Prune(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	order := r.order[:0]
	for _, id := range r.order {
		rec := r.records[id]
		if rec.Status.Terminal() && rec.EndedAt != nil && rec.EndedAt.Before(cutoff) {
			delete(r.records, id)
			removed++
			continue
		}
		order = append(order, id)
	}
	r.order = order

	if removed > 0 {
		r.logger.Info("pruned finished jobs", "removed", removed, "max_age", maxAge)
	}
	return removed
}
