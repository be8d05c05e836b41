package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the pre-built styles of the code tables and overlays.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	TabActive lipgloss.Style
	TabIdle   lipgloss.Style

	Code       lipgloss.Style // a live code
	CodeError  lipgloss.Style // the "Error" sentinel
	MutedText  lipgloss.Style
	SharedMark lipgloss.Style
	Checked    lipgloss.Style
	BarKey     lipgloss.Style
	BarOff     lipgloss.Style
	Overlay    lipgloss.Style
	Prompt     lipgloss.Style

	Toast map[ToastLevel]lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,
		Border:    ColorBorder,
		Highlight: ColorBgHighlight,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Header = r.NewStyle().
		Foreground(t.Subtext).
		Bold(true)

	t.TabActive = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.TabIdle = r.NewStyle().Foreground(t.Secondary).Padding(0, 1)

	t.Code = r.NewStyle().Foreground(ColorInfo).Bold(true)
	t.CodeError = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.SharedMark = r.NewStyle().Foreground(ThemeFg("#FFB86C"))
	t.Checked = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.BarKey = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.BarOff = r.NewStyle().Foreground(ColorMuted).Faint(true)

	t.Overlay = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)
	t.Prompt = r.NewStyle().Foreground(t.Primary).Bold(true)

	t.Toast = map[ToastLevel]lipgloss.Style{
		ToastInfo:    r.NewStyle().Foreground(ColorInfo),
		ToastSuccess: r.NewStyle().Foreground(ColorSuccess),
		ToastWarning: r.NewStyle().Foreground(ColorWarning),
		ToastError:   r.NewStyle().Foreground(ColorDanger).Bold(true),
	}

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
