package engine

import (
	"sync"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// Tracker accumulates live per-output counters while a sweep runs.
// Status queries read snapshots concurrently with worker updates.
type Tracker struct {
	mu       sync.Mutex
	counters map[string]runs.Counters
}

func newTracker(sweep Sweep, n int) *Tracker {
	counters := make(map[string]runs.Counters, len(sweep.Outputs))
	for _, out := range sweep.Outputs {
		switch out.Kind {
		case runs.KindArray:
			counters[out.Name] = runs.Counters{NTotal: n, TotalKnown: true}
		case runs.KindFile:
			counters[out.Name] = runs.Counters{NTotal: 1, TotalKnown: true}
		}
	}
	return &Tracker{counters: counters}
}

func (t *Tracker) elementDone(output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.counters[output]
	c.NCompleted++
	t.counters[output] = c
}

func (t *Tracker) fileDone(output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.counters[output]
	c.NCompleted = c.NTotal
	t.counters[output] = c
}

// pointFailed records one failed unit against each given output. Callers
// list only the outputs not yet counted done for the failed point, so a
// unit is never both completed and failed.
func (t *Tracker) pointFailed(outputs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range outputs {
		c := t.counters[name]
		c.NFailed++
		t.counters[name] = c
	}
}

// Snapshot returns a copy of the current counters. It never blocks on
// sweep completion.
func (t *Tracker) Snapshot() map[string]runs.Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]runs.Counters, len(t.counters))
	for name, c := range t.counters {
		out[name] = c
	}
	return out
}
