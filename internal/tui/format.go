package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/haul/internal/engine"
)

// Plain-text line bodies shared by both renderers.

// GaugeLabel is the overall progress title, e.g. "Installing packages 2/5".
func GaugeLabel(s engine.Stats) string {
	return fmt.Sprintf("Installing packages %d/%d", s.Done(), s.Total)
}

// CompletedLine is printed once per finished task.
func CompletedLine(name string, elapsed time.Duration) string {
	return fmt.Sprintf("✓ Installed %s in %dms", name, elapsed.Milliseconds())
}

// FailedLine is printed once per failed task.
func FailedLine(name, message string) string {
	return fmt.Sprintf("✗ Failed %s: %s", name, message)
}

// FinishedLine is printed once when every task is terminal.
func FinishedLine(s engine.Stats) string {
	if s.Errored > 0 {
		return fmt.Sprintf("🎉 Installation complete! (%d of %d failed)", s.Errored, s.Total)
	}
	return "🎉 Installation complete!"
}

// StalledLine is printed when the run ends with tasks nobody will take.
func StalledLine(s engine.Stats) string {
	return fmt.Sprintf("⚠ Stopped with %d pending: every worker failed", s.Pending)
}

// fitName truncates name to width cells and pads it on the right.
func fitName(name string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(name) > width {
		name = ansi.Truncate(name, width, "…")
	}
	return runewidth.FillRight(name, width)
}

// formatElapsed renders a duration as whole milliseconds.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
