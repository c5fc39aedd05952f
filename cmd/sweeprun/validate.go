package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweeplab/sweeprun/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate sweeprun configuration file",
	Long: `Validate the syntax and semantics of a sweeprun configuration file.

This command loads and validates the configuration file without starting
anything. It checks for:
  - Valid YAML syntax
  - Required fields
  - Unique sweep and output names
  - Valid output kinds
  - Valid store driver configuration
  - Valid retention durations

Example:
  sweeprun validate --config ./sweeprun.yaml`,
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().StringP("config", "c", "sweeprun.yaml", "Path to configuration file")
	validateCmd.MarkFlagRequired("config")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	logger.Info("validating configuration", "path", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Error("configuration file not found", "path", configPath)
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	// LoadConfig validates automatically
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("configuration validation failed", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	logger.Info("configuration is valid",
		"path", configPath,
		"sweeps", len(cfg.Sweeps),
		"runs_root", cfg.Runs.Root,
		"store_driver", cfg.Store.Driver,
		"retention_enabled", cfg.Retention.Enabled)

	for i, sweep := range cfg.Sweeps {
		logger.Info(fmt.Sprintf("sweep %d", i+1),
			"name", sweep.Name,
			"command", strings.Join(sweep.Command, " "),
			"timeout_sec", sweep.TimeoutSec,
			"workers", sweep.Workers,
			"outputs", formatOutputs(sweep.Outputs))
	}

	fmt.Fprintf(os.Stdout, "\n✓ Configuration is valid: %s\n", configPath)
	fmt.Fprintf(os.Stdout, "  Sweeps: %d\n", len(cfg.Sweeps))
	fmt.Fprintf(os.Stdout, "  Store: %s (%s)\n", cfg.Store.Driver, cfg.Store.Path)
	fmt.Fprintf(os.Stdout, "  Runs root: %s\n", cfg.Runs.Root)

	return nil
}
