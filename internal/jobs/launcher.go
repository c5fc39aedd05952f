package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// StartFunc schedules the background task for one sweep and returns its
// live handle. The execution engine's RunAsync satisfies this shape.
type StartFunc func(ctx context.Context, inputs map[string]any, runFolder string) (Handle, error)

// Launcher starts background sweeps and registers them so they can be
// polled and cancelled later. Launch never blocks on the sweep itself.
type Launcher struct {
	registry *Registry
	start    StartFunc
	runsRoot string
	logger   *slog.Logger
}

// NewLauncher wires a launcher to the registry it registers into.
// runsRoot is the parent directory for default run folders.
func NewLauncher(registry *Registry, start StartFunc, runsRoot string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		registry: registry,
		start:    start,
		runsRoot: runsRoot,
		logger:   logger,
	}
}

// Launch starts a sweep in the background and registers it. When
// runFolder is empty a fresh folder named after the job id is derived
// under the runs root, so concurrent launches can never collide. The
// returned folder is the one actually used.
//
// A start failure is returned synchronously and nothing is registered.
func (l *Launcher) Launch(ctx context.Context, inputs map[string]any, runFolder, displayName string) (jobID, folder string, err error) {
	jobID = NewJobID()
	folder = runFolder
	if folder == "" {
		folder = filepath.Join(l.runsRoot, "job_"+jobID)
	}

	h, err := l.start(ctx, inputs, folder)
	if err != nil {
		return "", "", fmt.Errorf("start sweep: %w", err)
	}

	l.registry.RegisterID(jobID, h, folder, displayName)
	go l.watch(jobID, h)

	return jobID, folder, nil
}

// watch resolves the registry record as soon as the task finishes, so
// terminal hooks fire even when nobody polls the job.
func (l *Launcher) watch(jobID string, h Handle) {
	_ = h.Wait(context.Background())
	l.registry.Resolve(jobID)
}
