package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive palette. Light mode colors are tuned for contrast on white
// backgrounds.
var (
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBorder      = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Countdown bar colors: plenty of time, getting close, about to rotate.
const (
	barFresh   = "#50FA7B"
	barAging   = "#FFB86C"
	barExpires = "#FF5555"
)

// barColor picks the countdown color for the remaining share of a period.
func barColor(remaining float64) string {
	switch {
	case remaining > 0.5:
		return barFresh
	case remaining > 1.0/6:
		return barAging
	default:
		return barExpires
	}
}

// RenderDivider renders a horizontal rule of the given width.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render(strings.Repeat("─", width))
}
