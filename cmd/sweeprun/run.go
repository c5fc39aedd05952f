package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweeplab/sweeprun/internal/config"
	"github.com/sweeplab/sweeprun/internal/engine"
	"github.com/sweeplab/sweeprun/internal/jobs"
)

var runCmd = &cobra.Command{
	Use:   "run [sweep-name]",
	Short: "Execute one sweep synchronously",
	Long: `Execute a configured sweep in the foreground and wait for it to
finish. Results are persisted under the run folder exactly as they are
for background launches, so the run can be inspected later.

Array-valued inputs define the sweep axes; all arrays are zipped, so
their lengths must agree. Scalar inputs are passed to every point.

Examples:
  sweeprun run double --config ./sweeprun.yaml --input "x=[1,2,3]"
  sweeprun run double --input "x=[1,2]" --input "offset=10" --folder ./runs/manual`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	runCmd.Flags().StringP("config", "c", "sweeprun.yaml", "Path to configuration file")
	runCmd.Flags().StringArrayP("input", "i", nil, "Sweep input as key=value; value is parsed as JSON (repeatable)")
	runCmd.Flags().StringP("folder", "f", "", "Run folder (default: <runs root>/job_<id>)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	rawInputs, _ := cmd.Flags().GetStringArray("input")
	folder, _ := cmd.Flags().GetString("folder")
	sweepName := args[0]

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sw, err := config.GetSweep(configPath, sweepName)
	if err != nil {
		return fmt.Errorf("failed to resolve sweep: %w", err)
	}

	inputs, err := parseInputs(rawInputs)
	if err != nil {
		return err
	}

	if folder == "" {
		folder = filepath.Join(cfg.Runs.Root, "job_"+jobs.NewJobID())
	}

	step := &engine.CommandStep{
		Command:    sw.Command,
		Workdir:    sw.Workdir,
		Env:        sw.Env,
		TimeoutSec: sw.TimeoutSec,
		Logger:     logger,
	}
	eng := engine.New(step, sw.Workers, logger)

	logger.Info("running sweep",
		"sweep", sw.Name,
		"run_folder", folder,
		"inputs", len(inputs))

	ctx := setupSignalHandler()
	result, err := eng.Run(ctx, engineSweep(*sw), inputs, folder)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	fmt.Fprintf(os.Stderr, "✓ Sweep '%s' finished, outputs in %s\n", sw.Name, folder)

	return nil
}

// parseInputs turns key=value flags into a sweep input map. Values are
// decoded as JSON so arrays and numbers keep their types; anything that
// is not valid JSON is passed through as a string.
func parseInputs(raw []string) (map[string]any, error) {
	inputs := make(map[string]any, len(raw))
	for _, item := range raw {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid input %q (expected key=value)", item)
		}

		var value any
		if err := json.Unmarshal([]byte(parts[1]), &value); err != nil {
			value = parts[1]
		}
		inputs[parts[0]] = value
	}
	return inputs, nil
}
