package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeplab/sweeprun/internal/config"
	"github.com/sweeplab/sweeprun/internal/engine"
	"github.com/sweeplab/sweeprun/internal/jobs"
	"github.com/sweeplab/sweeprun/internal/logging"
	"github.com/sweeplab/sweeprun/internal/runs"
	"github.com/sweeplab/sweeprun/internal/server"
	"github.com/sweeplab/sweeprun/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sweep API server with web dashboard",
	Long: `Start the sweep launch API and web dashboard.

This command loads the configuration file, wires a launcher for every
configured sweep, and serves an HTTP API for launching jobs, polling
their progress, cancelling them, and inspecting historical run folders.

Example:
  sweeprun serve --config ./sweeprun.yaml --addr :8080`,
	RunE: runServer,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "sweeprun.yaml", "Path to configuration file")
	serveCmd.Flags().StringP("addr", "a", "", "HTTP server address (overrides config)")
	serveCmd.MarkFlagRequired("config")
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	// Apply logging config from YAML if provided
	if cfg.Logging.Output != "" || cfg.Logging.Level != "" || cfg.Logging.Format != "" {
		serveLogger, err := logging.New(logging.Options{
			Format: cfg.Logging.Format,
			Level:  cfg.Logging.Level,
			Output: cfg.Logging.Output,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = serveLogger
		slog.SetDefault(serveLogger)
	}

	logger.Info("starting sweeprun in serve mode",
		"config", configPath,
		"addr", addr)
	logger.Info("configuration loaded successfully",
		"sweeps", len(cfg.Sweeps),
		"runs_root", cfg.Runs.Root,
		"store_driver", cfg.Store.Driver)

	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	logger.Info("store initialized", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	// Live job registry; terminal jobs flow into the history store.
	registry := jobs.NewRegistry(logger)
	registry.SetOnTerminal(saveExecutionHook(st, logger))

	launchers := buildLaunchers(cfg, registry, logger)
	logger.Info("sweep launchers ready", "sweeps", len(launchers))

	// Opt-in retention for the in-memory registry.
	var sweeper *jobs.Sweeper
	if cfg.Retention.Enabled {
		maxAge, err := cfg.Retention.MaxAgeDuration()
		if err != nil {
			return fmt.Errorf("invalid retention max_age: %w", err)
		}
		every, err := cfg.Retention.SweepEveryDuration()
		if err != nil {
			return fmt.Errorf("invalid retention sweep_every: %w", err)
		}
		sweeper, err = jobs.NewSweeper(registry, jobs.RetentionPolicy{
			MaxAge:     maxAge,
			SweepEvery: every,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create retention sweeper: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
		logger.Info("registry retention enabled", "max_age", maxAge, "sweep_every", every)
	}

	ctx := setupSignalHandler()

	srv := server.New(addr,
		server.NewJobsAdapter(registry, launchers),
		server.NewScannerAdapter(cfg.Runs.Root),
		server.NewHistoryAdapter(st, registry),
		logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.Start(gCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down gracefully...")
		if err := srv.Stop(context.Background()); err != nil {
			logger.Error("error stopping server", "error", err)
		}
		return nil
	})

	logger.Info("sweeprun serve mode started successfully",
		"sweeps", len(cfg.Sweeps),
		"dashboard_url", fmt.Sprintf("http://localhost%s", addr))

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("error during execution", "error", err)
		return err
	}

	logger.Info("sweeprun stopped")
	return nil
}

// buildLaunchers creates one launcher per configured sweep, each backed
// by its own engine with the sweep's worker budget.
func buildLaunchers(cfg *config.Config, registry *jobs.Registry, logger *slog.Logger) map[string]*jobs.Launcher {
	launchers := make(map[string]*jobs.Launcher, len(cfg.Sweeps))
	for _, sw := range cfg.Sweeps {
		step := &engine.CommandStep{
			Command:    sw.Command,
			Workdir:    sw.Workdir,
			Env:        sw.Env,
			TimeoutSec: sw.TimeoutSec,
			Logger:     logger,
		}
		eng := engine.New(step, sw.Workers, logger)
		spec := engineSweep(sw)

		start := func(ctx context.Context, inputs map[string]any, runFolder string) (jobs.Handle, error) {
			return eng.RunAsync(ctx, spec, inputs, runFolder)
		}
		launchers[sw.Name] = jobs.NewLauncher(registry, start, cfg.Runs.Root, logger)
	}
	return launchers
}

// engineSweep maps a configured sweep to the engine's sweep descriptor.
func engineSweep(sw config.Sweep) engine.Sweep {
	spec := engine.Sweep{Name: sw.Name}
	for _, out := range sw.Outputs {
		spec.Outputs = append(spec.Outputs, engine.OutputSpec{
			Name: out.Name,
			Kind: runs.OutputKind(out.Kind),
		})
	}
	return spec
}

// saveExecutionHook persists terminal registry records as history rows.
func saveExecutionHook(st store.Store, logger *slog.Logger) func(jobs.Record) {
	return func(rec jobs.Record) {
		exec := &store.Execution{
			JobID:       rec.JobID,
			DisplayName: rec.DisplayName,
			RunFolder:   rec.RunFolder,
			StartedAt:   rec.StartedAt,
			Status:      string(rec.Status),
			Error:       rec.Error,
		}
		if rec.EndedAt != nil {
			exec.EndedAt = *rec.EndedAt
		}
		if err := st.SaveExecution(exec); err != nil {
			logger.Error("failed to save execution history",
				"job_id", rec.JobID,
				"error", err)
		}
	}
}
