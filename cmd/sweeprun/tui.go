package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sweeplab/sweeprun/internal/logging"
	"github.com/sweeplab/sweeprun/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Watch run folders in a terminal UI",
	Long: `Start an interactive terminal monitor for run folders.

The monitor reads progress straight from disk, so it can watch sweeps
launched by the API server, by the run command, or by processes that
have already exited.

Navigation:
  ↑/↓ or k/j  - Navigate run list
  enter       - View per-output progress for a run
  esc         - Go back to run list
  g/G         - Jump to top/bottom
  r           - Refresh data
  q           - Quit

Example:
  sweeprun tui --root ./runs`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().String("root", "./runs", "Runs root directory to watch")
	tuiCmd.Flags().Int("max", 0, "Maximum runs to display (0 = unlimited)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	maxRuns, _ := cmd.Flags().GetInt("max")

	// Suppress logs in TUI mode to avoid polluting the interface.
	tuiLogger, err := logging.New(logging.Options{Format: "json", Level: "info", Output: "discard"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = tuiLogger
	slog.SetDefault(tuiLogger)

	model := tui.New(root, maxRuns, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(tui.Model); ok && m.Quitting() {
		logger.Info("monitor stopped")
	}

	return nil
}
