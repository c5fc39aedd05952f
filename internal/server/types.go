package server

import (
	"time"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// LaunchRequest asks for a new background sweep.
type LaunchRequest struct {
	// Sweep names a sweep definition from the configuration.
	Sweep string `json:"sweep"`

	// Inputs are the sweep inputs. Array-valued inputs define the points.
	Inputs map[string]any `json:"inputs"`

	// RunFolder overrides the default run folder when non-empty.
	RunFolder string `json:"run_folder,omitempty"`

	// DisplayName is an optional human-readable label.
	DisplayName string `json:"display_name,omitempty"`
}

// LaunchResponse reports a successfully launched job.
type LaunchResponse struct {
	JobID     string `json:"job_id"`
	RunFolder string `json:"run_folder"`
	Status    string `json:"status"`
}

// JobSummary represents one registered job.
type JobSummary struct {
	JobID       string     `json:"job_id"`
	DisplayName string     `json:"display_name,omitempty"`
	RunFolder   string     `json:"run_folder"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// JobListing is the response for listing registered jobs.
type JobListing struct {
	Jobs       []JobSummary `json:"jobs"`
	TotalCount int          `json:"total_count"`
}

// JobStatus is the full live status of one job.
type JobStatus struct {
	JobSummary

	Summary      runs.Summary             `json:"summary"`
	Counters     map[string]runs.Counters `json:"counters"`
	ElapsedSec   *float64                 `json:"elapsed_sec,omitempty"`
	RemainingSec *float64                 `json:"remaining_sec,omitempty"`
	Result       map[string]any           `json:"result,omitempty"`
}

// RunListing is the result of scanning a runs root on disk.
type RunListing struct {
	Root       string     `json:"root"`
	Scanned    int        `json:"scanned_directories"`
	TotalCount int        `json:"total_count"`
	Runs       []RunEntry `json:"runs"`
}

// RunEntry is one historical run found on disk.
type RunEntry struct {
	Folder        string       `json:"run_folder"`
	LastModified  time.Time    `json:"last_modified"`
	FormatVersion string       `json:"format_version"`
	SweepName     string       `json:"sweep_name,omitempty"`
	Summary       runs.Summary `json:"summary"`
}

// RunDetail is the reconstructed progress of a single run folder.
type RunDetail struct {
	Folder        string       `json:"run_folder"`
	FormatVersion string       `json:"format_version"`
	SweepName     string       `json:"sweep_name,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	Summary       runs.Summary `json:"summary"`
}

// RunOutputs holds stored output values loaded from a run folder.
type RunOutputs struct {
	Folder  string         `json:"run_folder"`
	Outputs map[string]any `json:"outputs"`
}

// ExecutionRecord represents one finished execution from the history store.
type ExecutionRecord struct {
	JobID       string    `json:"job_id"`
	DisplayName string    `json:"display_name,omitempty"`
	RunFolder   string    `json:"run_folder"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationSec float64   `json:"duration_sec"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// StatsResponse represents overall statistics
type StatsResponse struct {
	RegisteredJobs  int `json:"registered_jobs"`
	RunningJobs     int `json:"running_jobs"`
	TotalExecutions int `json:"total_executions"`
	Completed       int `json:"completed"`
	Cancelled       int `json:"cancelled"`
	Failed          int `json:"failed"`
}
