package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sweeplab/sweeprun/internal/jobs"
	"github.com/sweeplab/sweeprun/internal/runs"
	"github.com/sweeplab/sweeprun/internal/store"
)

// JobsAdapter adapts the job registry and per-sweep launchers to the
// server.Jobs interface.
type JobsAdapter struct {
	registry  *jobs.Registry
	launchers map[string]*jobs.Launcher
}

// NewJobsAdapter creates a new jobs adapter. launchers maps sweep names
// to the launcher configured for each sweep.
func NewJobsAdapter(registry *jobs.Registry, launchers map[string]*jobs.Launcher) *JobsAdapter {
	return &JobsAdapter{registry: registry, launchers: launchers}
}

// Launch starts a sweep in the background.
func (a *JobsAdapter) Launch(ctx context.Context, req LaunchRequest) (*LaunchResponse, error) {
	launcher, ok := a.launchers[req.Sweep]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sweep %q", ErrBadRequest, req.Sweep)
	}

	jobID, folder, err := launcher.Launch(ctx, req.Inputs, req.RunFolder, req.DisplayName)
	if err != nil {
		// Launch fails synchronously only on malformed sweep inputs.
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	return &LaunchResponse{
		JobID:     jobID,
		RunFolder: folder,
		Status:    string(jobs.StatusRunning),
	}, nil
}

// List returns every registered job, with statuses freshly resolved.
func (a *JobsAdapter) List(ctx context.Context) ([]JobSummary, error) {
	records := a.registry.List()
	summaries := make([]JobSummary, 0, len(records))
	for _, rec := range records {
		if resolved, ok := a.registry.Resolve(rec.JobID); ok {
			rec = resolved
		}
		summaries = append(summaries, toJobSummary(rec))
	}
	return summaries, nil
}

// Status returns the live status of one job.
func (a *JobsAdapter) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	st, err := a.registry.Status(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, err
	}

	return &JobStatus{
		JobSummary:   toJobSummary(st.Record),
		Summary:      st.Summary,
		Counters:     st.Counters,
		ElapsedSec:   st.ElapsedSec,
		RemainingSec: st.RemainingSec,
		Result:       st.Result,
	}, nil
}

// Cancel requests cooperative cancellation of one job.
func (a *JobsAdapter) Cancel(ctx context.Context, jobID string) (*JobSummary, error) {
	rec, err := a.registry.Cancel(jobID)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		case errors.Is(err, jobs.ErrAlreadyTerminal):
			return nil, fmt.Errorf("%w: job %s is already %s", ErrConflict, jobID, rec.Status)
		default:
			return nil, err
		}
	}

	summary := toJobSummary(rec)
	return &summary, nil
}

func toJobSummary(rec jobs.Record) JobSummary {
	return JobSummary{
		JobID:       rec.JobID,
		DisplayName: rec.DisplayName,
		RunFolder:   rec.RunFolder,
		StartedAt:   rec.StartedAt,
		EndedAt:     rec.EndedAt,
		Status:      string(rec.Status),
		Error:       rec.Error,
	}
}

// ScannerAdapter adapts the disk scanner to the server.Runs interface.
type ScannerAdapter struct {
	defaultRoot string
}

// NewScannerAdapter creates a scanner adapter. defaultRoot is used when
// a request does not name a root explicitly.
func NewScannerAdapter(defaultRoot string) *ScannerAdapter {
	return &ScannerAdapter{defaultRoot: defaultRoot}
}

// Scan lists historical runs under root, newest first.
func (a *ScannerAdapter) Scan(ctx context.Context, root string, maxRuns int) (*RunListing, error) {
	if root == "" {
		root = a.defaultRoot
	}

	result, err := runs.Scan(root, maxRuns)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: runs root %s", ErrNotFound, root)
		}
		return nil, err
	}

	listing := &RunListing{
		Root:    root,
		Scanned: result.Scanned,
		Runs:    make([]RunEntry, 0, len(result.Entries)),
	}
	for _, entry := range result.Entries {
		listing.Runs = append(listing.Runs, RunEntry{
			Folder:        entry.RunFolder,
			LastModified:  entry.LastModified,
			FormatVersion: entry.FormatVersion,
			SweepName:     entry.SweepName,
			Summary:       entry.Summary,
		})
	}
	listing.TotalCount = len(listing.Runs)
	return listing, nil
}

// Inspect reconstructs progress for a single run folder.
func (a *ScannerAdapter) Inspect(ctx context.Context, folder string) (*RunDetail, error) {
	meta, err := runs.LoadMetadata(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: run folder %s", ErrNotFound, folder)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	summary, err := runs.Summarize(folder, meta)
	if err != nil {
		return nil, err
	}

	return &RunDetail{
		Folder:        folder,
		FormatVersion: meta.FormatVersion,
		SweepName:     meta.SweepName,
		CreatedAt:     meta.CreatedAt,
		Summary:       summary,
	}, nil
}

// Outputs loads stored output values from a run folder.
func (a *ScannerAdapter) Outputs(ctx context.Context, folder string, names []string) (*RunOutputs, error) {
	values, err := runs.LoadOutputs(folder, names)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return &RunOutputs{Folder: folder, Outputs: values}, nil
}

// HistoryAdapter adapts the execution store and the live registry to the
// server.History interface.
type HistoryAdapter struct {
	store    store.Store
	registry *jobs.Registry
}

// NewHistoryAdapter creates a new history adapter.
func NewHistoryAdapter(s store.Store, registry *jobs.Registry) *HistoryAdapter {
	return &HistoryAdapter{store: s, registry: registry}
}

// GetExecutions returns finished executions, optionally filtered by status.
func (a *HistoryAdapter) GetExecutions(ctx context.Context, status *string, limit int) ([]ExecutionRecord, error) {
	var execs []*store.Execution
	var err error

	if status != nil {
		execs, err = a.store.ListByStatus(*status, limit)
	} else {
		execs, err = a.store.ListExecutions(limit)
	}
	if err != nil {
		return nil, err
	}

	records := make([]ExecutionRecord, len(execs))
	for i, exec := range execs {
		records[i] = ExecutionRecord{
			JobID:       exec.JobID,
			DisplayName: exec.DisplayName,
			RunFolder:   exec.RunFolder,
			StartedAt:   exec.StartedAt,
			EndedAt:     exec.EndedAt,
			DurationSec: exec.Duration().Seconds(),
			Status:      exec.Status,
			Error:       exec.Error,
		}
	}
	return records, nil
}

// GetStats returns overall statistics combining the live registry and
// the persisted history.
func (a *HistoryAdapter) GetStats(ctx context.Context) (*StatsResponse, error) {
	execs, err := a.store.ListExecutions(maxLimit)
	if err != nil {
		return nil, err
	}

	stats := &StatsResponse{
		TotalExecutions: len(execs),
	}
	for _, exec := range execs {
		switch exec.Status {
		case string(jobs.StatusCompleted):
			stats.Completed++
		case string(jobs.StatusCancelled):
			stats.Cancelled++
		case string(jobs.StatusFailed):
			stats.Failed++
		}
	}

	if a.registry != nil {
		for _, rec := range a.registry.List() {
			stats.RegisteredJobs++
			if rec.Status == jobs.StatusRunning {
				stats.RunningJobs++
			}
		}
	}

	return stats, nil
}
