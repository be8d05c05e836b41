package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
)

// helpMarkdown renders the key reference as a markdown document.
func helpMarkdown(k KeyMap) string {
	var sb strings.Builder
	sb.WriteString("# otpdeck\n\n")
	sb.WriteString("Codes refresh on every 30 second boundary; the bar shows the time left.\n\n")

	section := func(title string, bindings ...key.Binding) {
		sb.WriteString("## " + title + "\n\n")
		sb.WriteString("| Key | Action |\n|---|---|\n")
		for _, b := range bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		sb.WriteString("\n")
	}
	section("Navigation", k.Up, k.Down, k.NextTab, k.PrevTab, k.TabOwn, k.TabShared, k.Filter)
	section("Selection", k.Toggle, k.ToggleAll, k.Export, k.Delete, k.Share)
	section("Entries", k.Edit, k.Import, k.Create, k.SharedUsers, k.Copy)
	section("General", k.Reload, k.Help, k.Quit)

	sb.WriteString("Import accepts a path to a QR image (PNG, JPEG, GIF, BMP, TIFF, WebP, up to 5MB) ")
	sb.WriteString("or a pasted `otpauth://` / `otpauth-migration://` URI; `ctrl+v` pastes from the clipboard.\n")
	return sb.String()
}

// renderHelp renders the help document for the terminal width. Plain
// markdown is returned when glamour cannot render.
func renderHelp(k KeyMap, width int) string {
	md := helpMarkdown(k)
	style := "dark"
	if TermProfile < colorprofile.ANSI {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 40)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
