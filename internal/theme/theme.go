// Package theme holds the shared lipgloss styles for CLI output.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for command section headers.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// SuccessStyle marks passed checks and completed runs.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// WarnStyle marks degraded results.
var WarnStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// ErrorStyle marks failed checks and runs.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// LabelStyle is used for field names in detail output.
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// SubtleStyle is used for secondary detail text.
var SubtleStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// PanelStyle wraps multi-line detail blocks.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// RunStatusStyle returns a color-coded style for a run status value.
func RunStatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return SuccessStyle
	case "degraded":
		return WarnStyle
	default:
		return ErrorStyle
	}
}

// UrgencyStyle returns a color-coded style for an overdue age in days.
func UrgencyStyle(daysOverdue int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case daysOverdue >= 14:
		return base.Foreground(ColorRed)
	case daysOverdue >= 7:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorYellow)
	}
}
