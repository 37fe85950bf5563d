// Package tui provides Bubble Tea TUI components for the adit CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI views are read-only
//   - TUI uses the same data payloads as non-TUI rendering
//   - No TUI-exclusive data allowed
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/adit/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// SuccessStyle for passed tests.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarningStyle for skipped and retried tests.
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for failed tests.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// ProgressStyle for the in-progress entry.
	ProgressStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StateStyle returns a style for a test entry state.
func StateStyle(state types.TestState) lipgloss.Style {
	switch state {
	case types.StatePassed:
		return SuccessStyle
	case types.StateSkipped, types.StateRetried:
		return WarningStyle
	case types.StateFailed:
		return ErrorStyle
	case types.StateInProgress:
		return ProgressStyle
	default:
		return ValueStyle
	}
}
