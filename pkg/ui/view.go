package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/otpdeck/pkg/codesync"
	"github.com/vanderheijden86/otpdeck/pkg/edit"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/selection"
)

// Column widths of the code table.
const (
	colCheck = 4
	colCode  = 10
	colOwner = 24
	colMark  = 8
)

// chrome is the number of lines around the table body: tabs, countdown,
// filter, header, divider, bulk bar and footer.
const chrome = 7

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	switch m.mode {
	case modeHelp:
		return m.helpVP.View() + "\n" + m.theme.MutedText.Render("↑/↓ scroll • esc close")
	case modeCreate:
		if m.create != nil {
			return m.center(m.theme.Overlay.Render(m.create.View()))
		}
	case modeExport:
		if m.export != nil {
			return m.center(m.export.View(m.theme, m.width, m.height))
		}
	case modeSharedUsers:
		if m.shared != nil {
			return m.center(m.shared.View(m.theme, m.width))
		}
	}

	var sb strings.Builder
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n")
	sb.WriteString(m.renderCountdown())
	sb.WriteString("\n")
	sb.WriteString(m.renderFilter())
	sb.WriteString("\n")
	sb.WriteString(m.renderTable())
	sb.WriteString(m.renderBulkBar())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderTabs() string {
	active := m.sel.Active()
	parts := []string{m.theme.Prompt.Render("otpdeck")}
	for _, t := range model.Tables() {
		label := fmt.Sprintf("%s (%d)", tabTitle(t), m.rows[t].Len())
		if t == active {
			parts = append(parts, m.theme.TabActive.Render(label))
		} else {
			parts = append(parts, m.theme.TabIdle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func tabTitle(t model.Table) string {
	if t == model.TableShared {
		return "Shared with me"
	}
	return "My codes"
}

// renderCountdown draws the time left in the current period. The bar
// shrinks as the period elapses.
func (m Model) renderCountdown() string {
	left := 1 - m.fraction
	secs := countdownSeconds(m.remaining)
	bar := m.bar
	bar.FullColor = barColor(left)
	label := m.theme.MutedText.Render(fmt.Sprintf("%2ds ", secs))
	return label + bar.ViewAs(left)
}

func (m Model) renderFilter() string {
	if m.mode == modeFilter {
		return m.filterInput.View()
	}
	if f := m.filters[m.sel.Active()]; f != "" {
		return m.theme.MutedText.Render("filter: " + f + "  (/ to change, esc in filter to clear)")
	}
	return ""
}

// tableHeight is the number of body rows that fit.
func (m Model) tableHeight() int {
	return max(m.height-chrome, 1)
}

func (m Model) renderTable() string {
	active := m.sel.Active()
	rows := m.visibleRows(active)
	labelW := max(m.width-colCheck-colCode-colOwner-colMark-4, 12)

	var sb strings.Builder
	header := fit(m.agg.State.Glyph(), colCheck) +
		fit("CODE", colCode) +
		fit("ISSUER / ACCOUNT", labelW) + " "
	if active == model.TableShared {
		header += fit("OWNER", colOwner)
	} else {
		header += fit("", colMark)
	}
	sb.WriteString(m.theme.Header.Render(header))
	sb.WriteString("\n")
	sb.WriteString(RenderDivider(m.width))
	sb.WriteString("\n")

	if len(rows) == 0 {
		msg := "No codes yet. Press i to import or n to add one."
		if !m.loaded[active] {
			msg = "Loading…"
		} else if m.filters[active] != "" {
			msg = "No codes match the filter."
		} else if active == model.TableShared {
			msg = "Nothing has been shared with you."
		}
		sb.WriteString(m.theme.MutedText.Render(msg))
		sb.WriteString("\n")
		return sb.String()
	}

	cursor := m.cursor[active]
	h := m.tableHeight()
	start := 0
	if cursor >= h {
		start = cursor - h + 1
	}
	end := min(start+h, len(rows))
	for i := start; i < end; i++ {
		sb.WriteString(m.renderRow(rows[i], i == cursor, labelW, active))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderRow(r codesync.Row, isCursor bool, labelW int, t model.Table) string {
	check := selection.Unchecked
	if m.sel.IsChecked(r.ID) {
		check = selection.Checked
	}
	checkCell := fit(check.Glyph(), colCheck)
	if check == selection.Checked {
		checkCell = m.theme.Checked.Render(checkCell)
	}

	codeStyle := m.theme.Code
	if r.Errored {
		codeStyle = m.theme.CodeError
	}
	codeCell := codeStyle.Render(fit(formatCode(r.Code), colCode))

	label := r.Label()
	editing := m.mode == modeEdit && t == model.TableOwn && m.editor.ID() == r.ID
	var labelCell string
	if editing {
		labelCell = m.renderEditor(labelW)
	} else {
		labelCell = fit(label, labelW)
	}

	var tail string
	if t == model.TableShared {
		tail = m.theme.MutedText.Render(fit(r.Owner, colOwner))
	} else if r.Shared {
		tail = m.theme.SharedMark.Render(fit("shared", colMark))
	} else {
		tail = fit("", colMark)
	}

	line := checkCell + codeCell + labelCell + " " + tail
	if isCursor && !editing {
		return m.theme.Selected.Render(line)
	}
	return line
}

// renderEditor draws the inline label editor in place of the label cell.
func (m Model) renderEditor(width int) string {
	value := m.editor.Value()
	var cell string
	switch {
	case m.editor.State() == edit.Saving:
		cell = m.theme.MutedText.Render(fit(value+" (saving…)", width))
	case m.editor.FullySelected():
		cell = m.theme.Selected.Render(fit(value, width-1))
	default:
		cell = fit(value+"▏", width)
	}
	return cell
}

// formatCode groups six-digit codes as "123 456".
func formatCode(code string) string {
	if len(code) == 6 && code != model.ErrorCode {
		return code[:3] + " " + code[3:]
	}
	return code
}

func (m Model) renderBulkBar() string {
	agg := m.agg
	var parts []string
	label := fmt.Sprintf("%d selected", agg.Count())
	if agg.BarEnabled {
		parts = append(parts, m.theme.Checked.Render(label))
	} else {
		parts = append(parts, m.theme.BarOff.Render(label))
	}
	for _, a := range agg.Actions {
		text := actionKey(a) + " " + string(a)
		if agg.BarEnabled {
			parts = append(parts, m.theme.BarKey.Render(text))
		} else {
			parts = append(parts, m.theme.BarOff.Render(text))
		}
	}
	return strings.Join(parts, "  ")
}

func actionKey(a selection.Action) string {
	switch a {
	case selection.ActionDelete:
		return "D"
	case selection.ActionShare:
		return "S"
	default:
		return "x"
	}
}

// renderFooter shows the active prompt, else the current toast, else key
// hints.
func (m Model) renderFooter() string {
	switch m.mode {
	case modeImport:
		return m.importInput.View()
	case modeShare:
		return m.theme.Prompt.Render(fmt.Sprintf("%d code(s) ", len(m.shareIDs))) + m.shareInput.View()
	case modeConfirmDelete:
		return m.theme.Toast[ToastWarning].Render(
			fmt.Sprintf("Delete %d code(s)? This cannot be undone. [y/N]", len(m.confirmIDs)))
	case modeEdit:
		hint := "enter save • esc cancel • ctrl+u clear"
		if e := m.editor.Err(); e != "" {
			return m.theme.Toast[ToastError].Render(e) + "  " + m.theme.MutedText.Render(hint)
		}
		if m.toast.Active(m.now()) {
			return m.renderToast()
		}
		return m.theme.MutedText.Render(hint)
	}
	if m.toast.Active(m.now()) {
		return m.renderToast()
	}
	hints := make([]string, 0, 8)
	for _, b := range m.keys.FooterBindings() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return m.theme.MutedText.Render(truncate(strings.Join(hints, " • "), m.width))
}

func (m Model) renderToast() string {
	style, ok := m.theme.Toast[m.toast.Level]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(truncate(m.toast.Text, m.width))
}

// countdownSeconds rounds up so the label never shows 0s mid-period.
func countdownSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
