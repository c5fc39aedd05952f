package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// Handle is the live, cancellable reference to a background sweep. All
// methods are safe for concurrent use and none of them blocks on the
// sweep's completion, except Wait.
type Handle struct {
	cancel  context.CancelFunc
	tracker *Tracker
	done    chan struct{}

	mu     sync.Mutex
	result map[string]any
	err    error
}

// Done reports whether the background sweep has finished, successfully
// or not.
func (h *Handle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Err returns the terminal error, or nil while running or on success.
func (h *Handle) Err() error {
	if !h.Done() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Result returns the sweep result. It is defined only once Done reports
// true; calling earlier is an error, as is a failed sweep.
func (h *Handle) Result() (map[string]any, error) {
	if !h.Done() {
		return nil, fmt.Errorf("sweep is still running")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return h.result, nil
}

// Cancel requests cooperative cancellation. The sweep stops at its next
// checkpoint; already-dispatched points may still finish and write their
// elements after Cancel returns.
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until the sweep finishes or ctx is cancelled, and returns
// the sweep's terminal error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current per-output progress counters.
func (h *Handle) Snapshot() map[string]runs.Counters {
	return h.tracker.Snapshot()
}
