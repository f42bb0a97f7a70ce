package tui

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}
	accentColor  = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	elapsedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	failureStyle = lipgloss.NewStyle().Foreground(errorColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	helpStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	logStyle     = lipgloss.NewStyle().Foreground(mutedColor).Faint(true)
)
