package jobs

import (
	"time"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// LiveStatus is the full poll response for one registered job: its
// record, per-output progress aggregated from the live counters, and
// advisory time estimates.
type LiveStatus struct {
	Record

	Summary  runs.Summary             `json:"summary"`
	Counters map[string]runs.Counters `json:"counters"`

	// ElapsedSec and RemainingSec are advisory. Both are omitted until at
	// least one unit of work has completed; the remaining estimate
	// additionally requires every output's total to be known.
	ElapsedSec   *float64 `json:"elapsed_sec,omitempty"`
	RemainingSec *float64 `json:"remaining_sec,omitempty"`

	// Result carries the sweep outputs once the job completed.
	Result map[string]any `json:"result,omitempty"`
}

// Status resolves and reports one job. The per-output counters come from
// the handle's tracker, so progress is live even while elements are
// still being written to disk.
func (r *Registry) Status(jobID string) (LiveStatus, error) {
	rec, ok := r.Resolve(jobID)
	if !ok {
		return LiveStatus{}, ErrNotFound
	}

	counters := rec.Handle.Snapshot()
	outputs := make(map[string]runs.OutputProgress, len(counters))
	for name, c := range counters {
		outputs[name] = c.Progress()
	}

	st := LiveStatus{
		Record:   rec,
		Summary:  runs.NewSummary(outputs),
		Counters: counters,
	}
	st.ElapsedSec, st.RemainingSec = estimate(rec.StartedAt, rec.EndedAt, counters)

	if rec.Status == StatusCompleted {
		if result, err := rec.Handle.Result(); err == nil {
			st.Result = result
		}
	}
	return st, nil
}

// estimate derives elapsed and remaining wall-clock time from progress
// counters. Remaining extrapolates linearly from throughput so far:
// elapsed * (total - completed) / completed, over outputs with known
// totals. With zero completed units there is no throughput to
// extrapolate from and both values stay unknown.
func estimate(started time.Time, ended *time.Time, counters map[string]runs.Counters) (elapsedSec, remainingSec *float64) {
	var completed, knownTotal, knownCompleted int
	allKnown := true
	for _, c := range counters {
		completed += c.NCompleted
		if c.TotalKnown {
			knownTotal += c.NTotal
			knownCompleted += c.NCompleted
		} else {
			allKnown = false
		}
	}
	if completed == 0 {
		return nil, nil
	}

	end := time.Now().UTC()
	if ended != nil {
		end = *ended
	}
	elapsed := end.Sub(started).Seconds()
	elapsedSec = &elapsed

	if allKnown && knownCompleted > 0 {
		remaining := elapsed * float64(knownTotal-knownCompleted) / float64(knownCompleted)
		remainingSec = &remaining
	}
	return elapsedSec, remainingSec
}
