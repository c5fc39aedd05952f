package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweeplab/sweeprun/internal/runs"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect historical run folders on disk",
	Long: `Inspect run folders without any live process state.

Subcommands:
  list     - List runs under a root directory, newest first
  inspect  - Reconstruct progress for a single run folder
  outputs  - Load stored output values from a run folder

Examples:
  sweeprun runs list --root ./runs --max 20
  sweeprun runs inspect ./runs/job_4f1c --json
  sweeprun runs outputs ./runs/job_4f1c y total`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs under a root directory",
	Long: `List every readable run folder under a root directory, newest
first. Corrupt runs are skipped but still counted as scanned.

Example:
  sweeprun runs list --root ./runs --max 20`,
	RunE: runListRuns,
}

var inspectRunCmd = &cobra.Command{
	Use:   "inspect [run-folder]",
	Short: "Reconstruct progress for one run folder",
	Long: `Reconstruct per-output completion for one run folder from its
persisted state alone. Works for runs launched by any process, running
or long gone.

Example:
  sweeprun runs inspect ./runs/job_4f1c`,
	Args: cobra.ExactArgs(1),
	RunE: runInspectRun,
}

var runOutputsCmd = &cobra.Command{
	Use:   "outputs [run-folder] [output...]",
	Short: "Load stored output values from a run folder",
	Long: `Load output values persisted under a run folder. Without output
names, every output declared in the run descriptor is loaded.

Examples:
  sweeprun runs outputs ./runs/job_4f1c
  sweeprun runs outputs ./runs/job_4f1c y total --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRunOutputs,
}

func init() {
	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(inspectRunCmd)
	runsCmd.AddCommand(runOutputsCmd)

	runsCmd.PersistentFlags().Bool("json", false, "Emit JSON instead of a table")

	listRunsCmd.Flags().String("root", "./runs", "Runs root directory")
	listRunsCmd.Flags().Int("max", 0, "Maximum runs to list (0 = unlimited)")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	maxRuns, _ := cmd.Flags().GetInt("max")
	asJSON, _ := cmd.Flags().GetBool("json")

	result, err := runs.Scan(root, maxRuns)
	if err != nil {
		return fmt.Errorf("failed to scan runs: %w", err)
	}

	if asJSON {
		return writeStdoutJSON(result)
	}

	if len(result.Entries) == 0 {
		fmt.Printf("No runs found under %s (%d directories scanned)\n", root, result.Scanned)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RUN\tSWEEP\tOUTPUTS\tSTATUS\tMODIFIED")
	for _, entry := range result.Entries {
		status := "in progress"
		if entry.Summary.AllComplete {
			status = "complete"
		}
		sweep := entry.SweepName
		if sweep == "" {
			sweep = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
			filepath.Base(entry.RunFolder),
			sweep,
			entry.Summary.CompletedOutputs,
			entry.Summary.TotalOutputs,
			status,
			entry.LastModified.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	fmt.Printf("\nListed %d of %d scanned directories\n", len(result.Entries), result.Scanned)

	return nil
}

func runInspectRun(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	folder := args[0]

	meta, err := runs.LoadMetadata(folder)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	summary, err := runs.Summarize(folder, meta)
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}

	if asJSON {
		return writeStdoutJSON(map[string]any{
			"run_folder":     folder,
			"format_version": meta.FormatVersion,
			"sweep_name":     meta.SweepName,
			"created_at":     meta.CreatedAt,
			"summary":        summary,
		})
	}

	fmt.Printf("Run:    %s\n", folder)
	if meta.SweepName != "" {
		fmt.Printf("Sweep:  %s\n", meta.SweepName)
	}
	fmt.Printf("Format: %s\n", meta.FormatVersion)
	fmt.Printf("Status: %d/%d outputs complete\n\n", summary.CompletedOutputs, summary.TotalOutputs)

	names := make([]string, 0, len(summary.Outputs))
	for name := range summary.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "OUTPUT\tFRACTION\tCOMPLETE\tBYTES")
	for _, name := range names {
		p := summary.Outputs[name]
		fraction := "n/a"
		if p.Fraction != nil {
			fraction = fmt.Sprintf("%.1f%%", *p.Fraction*100)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", name, fraction, p.Complete, p.Bytes)
	}
	w.Flush()

	return nil
}

func runRunOutputs(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	folder := args[0]

	values, err := runs.LoadOutputs(folder, args[1:])
	if err != nil {
		return fmt.Errorf("failed to load outputs: %w", err)
	}

	if asJSON {
		return writeStdoutJSON(values)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := json.Marshal(values[name])
		if err != nil {
			return fmt.Errorf("failed to render output %s: %w", name, err)
		}
		fmt.Printf("%s = %s\n", name, b)
	}
	return nil
}

func writeStdoutJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
