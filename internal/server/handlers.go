package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	version      = "v0.1.0"
	defaultLimit = 100
	maxLimit     = 1000
)

// handleHealth returns the health status of the server
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: version,
		Uptime:  s.Uptime(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleLaunchJob starts a new background sweep
func (s *Server) handleLaunchJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Sweep == "" {
		s.writeError(w, http.StatusBadRequest, "sweep name is required", nil)
		return
	}

	resp, err := s.jobs.Launch(ctx, req)
	if err != nil {
		s.writeServiceError(w, "failed to launch sweep", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, resp)
}

// handleListJobs returns every job registered in this process
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve jobs", err)
		return
	}

	s.writeJSON(w, http.StatusOK, JobListing{Jobs: jobs, TotalCount: len(jobs)})
}

// handleJobStatus returns the live status of a specific job
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "job ID is required", nil)
		return
	}

	status, err := s.jobs.Status(ctx, jobID)
	if err != nil {
		s.writeServiceError(w, "failed to get job status", err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

// handleCancelJob requests cancellation of a running job
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "job ID is required", nil)
		return
	}

	job, err := s.jobs.Cancel(ctx, jobID)
	if err != nil {
		s.writeServiceError(w, "failed to cancel job", err)
		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

// handleListRuns scans a runs root on disk and returns run summaries
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	root := r.URL.Query().Get("root")
	maxRuns := s.parseIntParam(r, "max", defaultLimit)

	listing, err := s.runs.Scan(ctx, root, maxRuns)
	if err != nil {
		s.writeServiceError(w, "failed to scan runs", err)
		return
	}

	s.writeJSON(w, http.StatusOK, listing)
}

// handleInspectRun reconstructs progress for one run folder
func (s *Server) handleInspectRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		s.writeError(w, http.StatusBadRequest, "folder parameter is required", nil)
		return
	}

	detail, err := s.runs.Inspect(ctx, folder)
	if err != nil {
		s.writeServiceError(w, "failed to inspect run", err)
		return
	}

	s.writeJSON(w, http.StatusOK, detail)
}

// handleRunOutputs loads stored output values from one run folder
func (s *Server) handleRunOutputs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		s.writeError(w, http.StatusBadRequest, "folder parameter is required", nil)
		return
	}
	names := r.URL.Query()["name"]

	outputs, err := s.runs.Outputs(ctx, folder, names)
	if err != nil {
		s.writeServiceError(w, "failed to load run outputs", err)
		return
	}

	s.writeJSON(w, http.StatusOK, outputs)
}

// handleHistory returns finished executions from the history store
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := s.parseIntParam(r, "limit", defaultLimit)

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}

	execs, err := s.history.GetExecutions(ctx, status, limit)
	if err != nil {
		s.logger.Error("failed to get history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve history", err)
		return
	}

	s.writeJSON(w, http.StatusOK, execs)
}

// handleGetStats returns overall statistics
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.history.GetStats(ctx)
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve stats", err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// parseIntParam parses a positive integer query parameter with a default.
func (s *Server) parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil {
		return fallback
	}

	if value <= 0 {
		return fallback
	}

	if value > maxLimit {
		return maxLimit
	}

	return value
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		s.writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ErrConflict):
		s.writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, ErrBadRequest):
		s.writeError(w, http.StatusBadRequest, message, err)
	default:
		s.writeError(w, http.StatusInternalServerError, message, err)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil && s.logger != nil {
		s.logger.Error("API error", "status", status, "message", message, "error", err)
	}

	s.writeJSON(w, status, response)
}
