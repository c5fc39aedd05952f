package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	if m.viewMode == ViewModeDetail {
		return m.renderDetailView()
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStats())

	if m.errorMessage != "" {
		sections = append(sections, statusErrorStyle.Render("Error: "+m.errorMessage))
	}

	sections = append(sections, m.renderRunList())
	sections = append(sections, m.renderListHelp())

	return strings.Join(sections, "\n")
}

// renderHeader renders the title bar.
func (m Model) renderHeader() string {
	title := fmt.Sprintf("Sweeprun Monitor %s %s", iconBullet, m.root)
	return headerStyle.Render(title)
}

// renderStats renders the scan summary line.
func (m Model) renderStats() string {
	complete := 0
	for _, entry := range m.entries {
		if entry.Summary.AllComplete {
			complete++
		}
	}

	parts := []string{
		keyStyle.Render("Scanned: ") + valueStyle.Render(fmt.Sprintf("%d", m.scanned)),
		keyStyle.Render("Listed: ") + valueStyle.Render(fmt.Sprintf("%d", len(m.entries))),
		keyStyle.Render("Complete: ") + statusCompleteStyle.Render(fmt.Sprintf("%d", complete)),
		keyStyle.Render("Updated: ") + valueStyle.Render(m.lastUpdate.Format("15:04:05")),
	}

	return statsStyle.Render(strings.Join(parts, "  "+iconBullet+"  "))
}

// renderRunList renders every scanned run, newest first.
func (m Model) renderRunList() string {
	if len(m.entries) == 0 {
		empty := statusUnknownStyle.Render("No runs found. Waiting for sweeps to write run folders...")
		return runListStyle.Render(empty)
	}

	rows := make([]string, 0, len(m.entries))
	for i, entry := range m.entries {
		rows = append(rows, m.renderRunRow(i, entry))
	}

	return runListStyle.Render(strings.Join(rows, "\n"))
}

// renderRunRow renders a single run entry in the list.
func (m Model) renderRunRow(index int, entry runs.Entry) string {
	cursor := "  "
	style := runItemStyle
	if index == m.selected {
		cursor = iconArrow + " "
		style = runItemSelectedStyle
	}

	icon, iconStyle := runStatusIcon(entry.Summary)
	name := truncate(filepath.Base(entry.RunFolder), 28)
	sweep := entry.SweepName
	if sweep == "" {
		sweep = "-"
	}

	line := fmt.Sprintf("%s%s %s  %s  %d/%d outputs  %s",
		cursor,
		iconStyle.Render(icon),
		padRight(name, 28),
		padRight(truncate(sweep, 16), 16),
		entry.Summary.CompletedOutputs,
		entry.Summary.TotalOutputs,
		keyStyle.Render(relativeTime(entry.LastModified)),
	)

	return style.Render(line)
}

// renderDetailView renders per-output progress for the selected run.
func (m Model) renderDetailView() string {
	if m.selected >= len(m.entries) {
		return detailStyle.Render("Run no longer exists") + "\n" + m.renderDetailHelp()
	}
	entry := m.entries[m.selected]

	var b strings.Builder

	b.WriteString(titleStyle.Render("Run: " + filepath.Base(entry.RunFolder)))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(entry.RunFolder))
	b.WriteString("\n\n")

	b.WriteString(keyStyle.Render("Sweep:    "))
	if entry.SweepName != "" {
		b.WriteString(valueStyle.Render(entry.SweepName))
	} else {
		b.WriteString(statusUnknownStyle.Render("unknown"))
	}
	b.WriteString("\n")

	b.WriteString(keyStyle.Render("Format:   "))
	b.WriteString(valueStyle.Render(entry.FormatVersion))
	b.WriteString("\n")

	b.WriteString(keyStyle.Render("Modified: "))
	b.WriteString(valueStyle.Render(entry.LastModified.Format("2006-01-02 15:04:05")))
	b.WriteString(keyStyle.Render(" (" + relativeTime(entry.LastModified) + ")"))
	b.WriteString("\n")

	b.WriteString(keyStyle.Render("Status:   "))
	if entry.Summary.AllComplete {
		b.WriteString(statusCompleteStyle.Render(iconComplete + " all outputs complete"))
	} else {
		b.WriteString(statusPartialStyle.Render(fmt.Sprintf("%s %d of %d outputs complete",
			iconPartial, entry.Summary.CompletedOutputs, entry.Summary.TotalOutputs)))
	}
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Outputs"))
	b.WriteString("\n")

	names := make([]string, 0, len(entry.Summary.Outputs))
	for name := range entry.Summary.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		b.WriteString(statusUnknownStyle.Render("  no outputs declared"))
		b.WriteString("\n")
	}
	for _, name := range names {
		b.WriteString(m.renderOutputRow(name, entry.Summary.Outputs[name]))
		b.WriteString("\n")
	}

	return detailStyle.Render(b.String()) + "\n" + m.renderDetailHelp()
}

// renderOutputRow renders one output with its progress bar.
func (m Model) renderOutputRow(name string, p runs.OutputProgress) string {
	label := padRight(truncate(name, 20), 20)

	var bar string
	if p.Fraction != nil {
		bar = m.bar.ViewAs(*p.Fraction)
	} else {
		bar = statusUnknownStyle.Render(iconUnknown + " size unresolved")
	}

	icon := statusPartialStyle.Render(iconPartial)
	if p.Complete {
		icon = statusCompleteStyle.Render(iconComplete)
	}

	return fmt.Sprintf("  %s %s %s  %s", icon, label, bar, keyStyle.Render(formatBytes(p.Bytes)))
}

// renderListHelp renders the help bar for the list view.
func (m Model) renderListHelp() string {
	return statusBarStyle.Render("↑/k up  ↓/j down  g/G top/bottom  enter details  r refresh  q quit")
}

// renderDetailHelp renders the help bar for the detail view.
func (m Model) renderDetailHelp() string {
	return statusBarStyle.Render("esc back  r refresh  q quit")
}

// runStatusIcon picks an icon and style for a run's overall state.
func runStatusIcon(s runs.Summary) (string, lipgloss.Style) {
	switch {
	case s.AllComplete:
		return iconComplete, statusCompleteStyle
	case s.CompletedOutputs > 0:
		return iconPartial, statusPartialStyle
	default:
		return iconUnknown, statusUnknownStyle
	}
}

// relativeTime renders a timestamp as a short "Xm ago" string.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncate shortens s to max characters with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// padRight pads s with spaces to at least width characters.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
