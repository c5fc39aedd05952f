package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy bounds how long finished jobs stay in the registry.
// Retention is opt-in; without a sweeper the registry keeps every record
// until the process exits.
type RetentionPolicy struct {
	// MaxAge is how long a terminal record is kept after it finished.
	MaxAge time.Duration
	// SweepEvery is the interval between prune passes.
	SweepEvery time.Duration
}

// Sweeper periodically prunes old terminal records from a registry.
type Sweeper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules Prune on the registry at the policy's interval.
// The schedule does not run until Start is called.
func NewSweeper(registry *Registry, policy RetentionPolicy, logger *slog.Logger) (*Sweeper, error) {
	if policy.MaxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", policy.MaxAge)
	}
	if policy.SweepEvery <= 0 {
		return nil, fmt.Errorf("retention sweep interval must be positive, got %s", policy.SweepEvery)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", policy.SweepEvery)
	if _, err := c.AddFunc(spec, func() {
		registry.Prune(policy.MaxAge)
	}); err != nil {
		return nil, fmt.Errorf("schedule retention sweep %q: %w", spec, err)
	}

	return &Sweeper{cron: c, logger: logger}, nil
}

// Start begins the sweep schedule in the background.
func (s *Sweeper) Start() {
	s.logger.Info("retention sweeper started")
	s.cron.Start()
}

// Stop halts the schedule and waits for an in-flight prune to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("retention sweeper stopped")
}
