package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// ViewMode represents the current view in the TUI.
type ViewMode int

const (
	ViewModeList ViewMode = iota
	ViewModeDetail
)

// Model holds the state for the TUI. The monitor works purely from run
// folders on disk, so it can watch sweeps launched by other processes
// or in earlier sessions.
type Model struct {
	root    string
	maxRuns int
	logger  *slog.Logger

	viewMode     ViewMode
	entries      []runs.Entry
	scanned      int
	selected     int
	width        int
	height       int
	lastUpdate   time.Time
	quitting     bool
	errorMessage string

	bar progress.Model
}

// New creates a new TUI model watching root for run folders.
func New(root string, maxRuns int, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		root:       root,
		maxRuns:    maxRuns,
		logger:     logger,
		lastUpdate: time.Now(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// Init initializes the model (required by Bubbletea).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// tickMsg is sent on a regular interval to refresh the UI.
type tickMsg time.Time

// tickCmd returns a command that sends a tick message every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshData rescans the runs root and updates the entry list.
func (m *Model) refreshData() {
	result, err := runs.Scan(m.root, m.maxRuns)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.errorMessage = ""
	m.entries = result.Entries
	m.scanned = result.Scanned

	if m.selected >= len(m.entries) {
		m.selected = max(0, len(m.entries)-1)
	}
	m.lastUpdate = time.Now()
}

// Quitting returns true if the user has requested to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
