// Package server exposes the job lifecycle and run inspection API over
// HTTP. It talks to the rest of the system through narrow interfaces so
// handlers can be tested against fakes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Jobs is the live job lifecycle surface the server needs.
type Jobs interface {
	// Launch starts a sweep in the background and returns its job id and
	// run folder.
	Launch(ctx context.Context, req LaunchRequest) (*LaunchResponse, error)

	// List returns every job registered in this process.
	List(ctx context.Context) ([]JobSummary, error)

	// Status returns the live status of one job.
	Status(ctx context.Context, jobID string) (*JobStatus, error)

	// Cancel requests cooperative cancellation of one job.
	Cancel(ctx context.Context, jobID string) (*JobSummary, error)
}

// Runs is the disk-backed run inspection surface.
type Runs interface {
	// Scan lists historical runs under a root directory, newest first.
	Scan(ctx context.Context, root string, maxRuns int) (*RunListing, error)

	// Inspect reconstructs progress for a single run folder.
	Inspect(ctx context.Context, folder string) (*RunDetail, error)

	// Outputs loads persisted output values from a run folder.
	Outputs(ctx context.Context, folder string, names []string) (*RunOutputs, error)
}

// History is the persisted execution history surface.
type History interface {
	// GetExecutions returns finished executions, optionally filtered by
	// terminal status.
	GetExecutions(ctx context.Context, status *string, limit int) ([]ExecutionRecord, error)

	// GetStats returns overall statistics.
	GetStats(ctx context.Context) (*StatsResponse, error)
}

// Sentinel errors the service layer uses to signal HTTP semantics.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

// Server represents the HTTP server for the Sweeprun API
type Server struct {
	addr    string
	jobs    Jobs
	runs    Runs
	history History
	logger  *slog.Logger

	srv       *http.Server
	router    *http.ServeMux
	startTime time.Time

	mu      sync.RWMutex
	started bool
}

// New creates a new Server instance
func New(addr string, jobs Jobs, runs Runs, history History, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      addr,
		jobs:      jobs,
		runs:      runs,
		history:   history,
		logger:    logger,
		startTime: time.Now(),
		router:    http.NewServeMux(),
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// API routes
	s.router.HandleFunc("GET /api/health", s.handleHealth)
	s.router.HandleFunc("POST /api/jobs", s.handleLaunchJob)
	s.router.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.router.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)
	s.router.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancelJob)
	s.router.HandleFunc("GET /api/runs", s.handleListRuns)
	s.router.HandleFunc("GET /api/runs/inspect", s.handleInspectRun)
	s.router.HandleFunc("GET /api/runs/outputs", s.handleRunOutputs)
	s.router.HandleFunc("GET /api/history", s.handleHistory)
	s.router.HandleFunc("GET /api/stats", s.handleGetStats)

	// UI routes
	s.router.HandleFunc("GET /", s.handleDashboard)
}

// Start starts the HTTP server with graceful shutdown support
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.loggingMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", "reason", ctx.Err())
		return s.Stop(context.Background())
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during shutdown", "error", err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.started = false
	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the routed handler, for tests that drive the server
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.router)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Uptime returns the server uptime as a string
func (s *Server) Uptime() string {
	duration := time.Since(s.startTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
