package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweeplab/sweeprun/internal/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Manage sweeps in the configuration",
	Long: `Manage sweep definitions in the Sweeprun configuration file.

Subcommands:
  add     - Add a new sweep to the configuration
  list    - List all sweeps in the configuration
  remove  - Remove a sweep from the configuration
  show    - Show one sweep in detail

Examples:
  sweeprun sweep add double --command ./steps/double.py --output "y:array"
  sweeprun sweep list --config sweeprun.yaml
  sweeprun sweep remove double --config sweeprun.yaml`,
}

var addSweepCmd = &cobra.Command{
	Use:   "add [sweep-name]",
	Short: "Add a new sweep to the configuration",
	Long: `Add a new sweep definition to the Sweeprun configuration file.

The step command is invoked once per sweep point with a JSON request on
stdin and must answer with a JSON object on stdout.

Examples:
  # Simple sweep with one array output
  sweeprun sweep add double --command ./steps/double.py --output "y:array"

  # Sweep with options and a reduced file output
  sweeprun sweep add fit \
    --command python --command ./steps/fit.py \
    --output "loss:array" \
    --output "best_params:file" \
    --workers 8 \
    --timeout 120 \
    --env "OMP_NUM_THREADS=1"`,
	Args: cobra.ExactArgs(1),
	RunE: runAddSweep,
}

var listSweepsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sweeps in the configuration",
	Long: `List all sweep definitions from the Sweeprun configuration file.

Displays sweep name, command, outputs and worker budget in a table.

Example:
  sweeprun sweep list --config sweeprun.yaml`,
	RunE: runListSweeps,
}

var removeSweepCmd = &cobra.Command{
	Use:   "remove [sweep-name]",
	Short: "Remove a sweep from the configuration",
	Long: `Remove a sweep definition from the Sweeprun configuration file
by its name.

Example:
  sweeprun sweep remove double --config sweeprun.yaml`,
	RunE: runRemoveSweep,
	Args: cobra.ExactArgs(1),
}

var showSweepCmd = &cobra.Command{
	Use:   "show [sweep-name]",
	Short: "Show one sweep in detail",
	Long: `Show the full definition of one configured sweep.

Example:
  sweeprun sweep show double --config sweeprun.yaml`,
	RunE: runShowSweep,
	Args: cobra.ExactArgs(1),
}

func init() {
	sweepCmd.AddCommand(addSweepCmd)
	sweepCmd.AddCommand(listSweepsCmd)
	sweepCmd.AddCommand(removeSweepCmd)
	sweepCmd.AddCommand(showSweepCmd)

	sweepCmd.PersistentFlags().StringP("config", "c", "sweeprun.yaml", "Path to configuration file")

	addSweepCmd.Flags().StringArray("command", nil, "Step command argument (repeatable, required)")
	addSweepCmd.Flags().StringArray("output", nil, "Output as name:kind where kind is array or file (repeatable, required)")
	addSweepCmd.Flags().String("workdir", "", "Working directory for the step command")
	addSweepCmd.Flags().Int("timeout", 600, "Per-invocation timeout in seconds")
	addSweepCmd.Flags().Int("workers", 4, "Parallel point invocations")
	addSweepCmd.Flags().StringSlice("env", []string{}, "Environment variables (KEY=VALUE, repeatable)")
}

func runAddSweep(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	command, _ := cmd.Flags().GetStringArray("command")
	outputSpecs, _ := cmd.Flags().GetStringArray("output")
	workdir, _ := cmd.Flags().GetString("workdir")
	timeout, _ := cmd.Flags().GetInt("timeout")
	workers, _ := cmd.Flags().GetInt("workers")
	envVars, _ := cmd.Flags().GetStringSlice("env")

	if len(command) == 0 {
		return fmt.Errorf("--command flag is required")
	}
	if len(outputSpecs) == 0 {
		return fmt.Errorf("--output flag is required")
	}

	outputs, err := parseOutputs(outputSpecs)
	if err != nil {
		return err
	}

	env := make(map[string]string)
	for _, envVar := range envVars {
		parts := strings.SplitN(envVar, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid environment variable format: %s (expected KEY=VALUE)", envVar)
		}
		env[parts[0]] = parts[1]
	}

	sweep := config.Sweep{
		Name:       args[0],
		Command:    command,
		Workdir:    workdir,
		TimeoutSec: timeout,
		Workers:    workers,
		Env:        env,
		Outputs:    outputs,
	}

	if err := config.AddSweep(configPath, sweep); err != nil {
		return fmt.Errorf("failed to add sweep: %w", err)
	}

	fmt.Printf("✓ Sweep '%s' added successfully to %s\n", sweep.Name, configPath)
	fmt.Printf("  Command: %s\n", strings.Join(sweep.Command, " "))
	fmt.Printf("  Outputs: %s\n", formatOutputs(sweep.Outputs))

	return nil
}

func runListSweeps(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(cfg.Sweeps) == 0 {
		fmt.Println("No sweeps configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMMAND\tOUTPUTS\tWORKERS\tTIMEOUT")

	for _, sweep := range cfg.Sweeps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%ds\n",
			sweep.Name,
			truncate(strings.Join(sweep.Command, " "), 40),
			formatOutputs(sweep.Outputs),
			sweep.Workers,
			sweep.TimeoutSec,
		)
	}

	w.Flush()
	fmt.Printf("\nTotal sweeps: %d\n", len(cfg.Sweeps))

	return nil
}

func runRemoveSweep(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	name := args[0]

	if err := config.RemoveSweep(configPath, name); err != nil {
		return fmt.Errorf("failed to remove sweep: %w", err)
	}

	fmt.Printf("✓ Sweep '%s' removed successfully from %s\n", name, configPath)

	return nil
}

func runShowSweep(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	sweep, err := config.GetSweep(configPath, args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve sweep: %w", err)
	}

	fmt.Printf("Name:    %s\n", sweep.Name)
	fmt.Printf("Command: %s\n", strings.Join(sweep.Command, " "))
	if sweep.Workdir != "" {
		fmt.Printf("Workdir: %s\n", sweep.Workdir)
	}
	fmt.Printf("Timeout: %ds\n", sweep.TimeoutSec)
	fmt.Printf("Workers: %d\n", sweep.Workers)
	if len(sweep.Env) > 0 {
		fmt.Println("Environment:")
		for k, v := range sweep.Env {
			fmt.Printf("  %s=%s\n", k, v)
		}
	}
	fmt.Println("Outputs:")
	for _, out := range sweep.Outputs {
		fmt.Printf("  %s (%s)\n", out.Name, out.Kind)
	}

	return nil
}

// Helper functions

func parseOutputs(specs []string) ([]config.Output, error) {
	outputs := make([]config.Output, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid output %q (expected name:kind)", spec)
		}
		kind := strings.ToLower(strings.TrimSpace(parts[1]))
		if kind != "array" && kind != "file" {
			return nil, fmt.Errorf("invalid output kind %q for %s (expected array or file)", parts[1], parts[0])
		}
		outputs = append(outputs, config.Output{Name: parts[0], Kind: kind})
	}
	return outputs, nil
}

func formatOutputs(outputs []config.Output) string {
	parts := make([]string, len(outputs))
	for i, out := range outputs {
		parts[i] = fmt.Sprintf("%s:%s", out.Name, out.Kind)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
