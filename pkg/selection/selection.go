// Package selection owns the bulk-selection state of the code tables.
//
// The controller is the single source of truth for which rows are checked.
// Views read the Aggregate it returns; they never keep checkbox state of
// their own. Every mutation recomputes the aggregate before returning, so
// the header checkbox, the bulk action bar and the id payload can never
// drift apart.
package selection

import (
	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// Tri is the header checkbox state.
type Tri int

const (
	Unchecked Tri = iota
	Indeterminate
	Checked
)

func (t Tri) String() string {
	switch t {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Glyph renders the state as a checkbox.
func (t Tri) Glyph() string {
	switch t {
	case Checked:
		return "[x]"
	case Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Action is a bulk operation offered by the action bar.
type Action string

const (
	ActionExport Action = "export"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// ActionsFor lists the bulk actions a table offers, in bar order.
func ActionsFor(t model.Table) []Action {
	if t == model.TableShared {
		return []Action{ActionExport}
	}
	return []Action{ActionExport, ActionDelete, ActionShare}
}

// Aggregate is the derived selection view of the active table.
type Aggregate struct {
	Table      model.Table
	State      Tri
	IDs        []model.EntryID // checked visible rows, in row order
	Joined     string          // IDs comma-joined for form payloads
	BarEnabled bool
	Actions    []Action
	Visible    int
}

// Count is the number of selected rows.
func (a Aggregate) Count() int { return len(a.IDs) }

type tableState struct {
	order   []model.EntryID
	present map[model.EntryID]bool
	checked map[model.EntryID]bool
	hidden  map[model.EntryID]bool
}

func newTableState() *tableState {
	return &tableState{
		present: map[model.EntryID]bool{},
		checked: map[model.EntryID]bool{},
		hidden:  map[model.EntryID]bool{},
	}
}

func (s *tableState) visible() []model.EntryID {
	out := make([]model.EntryID, 0, len(s.order))
	for _, id := range s.order {
		if !s.hidden[id] {
			out = append(out, id)
		}
	}
	return out
}

// Controller tracks rows, checks and filters for every table.
type Controller struct {
	active model.Table
	tables map[model.Table]*tableState
}

// New creates a controller with active as the visible table.
func New(active model.Table) *Controller {
	c := &Controller{active: active, tables: map[model.Table]*tableState{}}
	for _, t := range model.Tables() {
		c.tables[t] = newTableState()
	}
	if _, ok := c.tables[active]; !ok {
		c.active = model.TableOwn
	}
	return c
}

func (c *Controller) state(t model.Table) *tableState {
	s, ok := c.tables[t]
	if !ok {
		s = newTableState()
		c.tables[t] = s
	}
	return s
}

// Active returns the visible table.
func (c *Controller) Active() model.Table { return c.active }

// SetRows replaces a table's rows after a render. Checks and filters of
// that table are dropped, as a fresh render starts unselected.
func (c *Controller) SetRows(t model.Table, ids []model.EntryID) Aggregate {
	s := newTableState()
	for _, id := range ids {
		if s.present[id] {
			continue
		}
		s.present[id] = true
		s.order = append(s.order, id)
	}
	c.tables[t] = s
	return c.Recompute()
}

// ToggleRow checks or unchecks one row of the active table. Unknown and
// hidden ids are ignored.
func (c *Controller) ToggleRow(id model.EntryID, checked bool) Aggregate {
	s := c.state(c.active)
	if s.present[id] && !s.hidden[id] {
		if checked {
			s.checked[id] = true
		} else {
			delete(s.checked, id)
		}
	}
	return c.Recompute()
}

// Flip inverts one row's check.
func (c *Controller) Flip(id model.EntryID) Aggregate {
	return c.ToggleRow(id, !c.IsChecked(id))
}

// ToggleAll applies checked to every visible row of the active table.
// Hidden rows are never touched.
func (c *Controller) ToggleAll(checked bool) Aggregate {
	s := c.state(c.active)
	for _, id := range s.visible() {
		if checked {
			s.checked[id] = true
		} else {
			delete(s.checked, id)
		}
	}
	return c.Recompute()
}

// FlipAll checks every visible row unless all already are, in which case
// it clears them. This is the header checkbox click.
func (c *Controller) FlipAll() Aggregate {
	return c.ToggleAll(c.Recompute().State != Checked)
}

// ClearSelection unchecks every row of every table.
func (c *Controller) ClearSelection() Aggregate {
	for _, s := range c.tables {
		clear(s.checked)
	}
	return c.Recompute()
}

// SwitchTab makes t the active table and clears the selection.
func (c *Controller) SwitchTab(t model.Table) Aggregate {
	c.active = t
	c.state(t)
	return c.ClearSelection()
}

// ApplyFilter marks every row of t not in visible as hidden and clears the
// selection. A nil visible list shows every row.
func (c *Controller) ApplyFilter(t model.Table, visible []model.EntryID) Aggregate {
	s := c.state(t)
	clear(s.hidden)
	if visible != nil {
		show := make(map[model.EntryID]bool, len(visible))
		for _, id := range visible {
			show[id] = true
		}
		for _, id := range s.order {
			if !show[id] {
				s.hidden[id] = true
			}
		}
	}
	return c.ClearSelection()
}

// IsChecked reports whether id is checked in the active table.
func (c *Controller) IsChecked(id model.EntryID) bool {
	return c.state(c.active).checked[id]
}

// IsHidden reports whether id is filtered out of table t.
func (c *Controller) IsHidden(t model.Table, id model.EntryID) bool {
	return c.state(t).hidden[id]
}

// Visible returns the visible ids of table t in row order.
func (c *Controller) Visible(t model.Table) []model.EntryID {
	return c.state(t).visible()
}

// Recompute derives the aggregate for the active table.
func (c *Controller) Recompute() Aggregate {
	s := c.state(c.active)
	vis := s.visible()

	agg := Aggregate{Table: c.active, Visible: len(vis)}
	for _, id := range vis {
		if s.checked[id] {
			agg.IDs = append(agg.IDs, id)
		}
	}

	switch n := len(agg.IDs); {
	case n == 0:
		agg.State = Unchecked
	case n == len(vis):
		agg.State = Checked
	default:
		agg.State = Indeterminate
	}
	agg.Joined = model.JoinIDs(agg.IDs)
	agg.BarEnabled = len(agg.IDs) > 0
	agg.Actions = ActionsFor(c.active)
	return agg
}

// Require returns the aggregate a bulk action should submit, or a
// validation error when nothing is selected or the table does not offer
// the action.
func (c *Controller) Require(action Action) (Aggregate, error) {
	agg := c.Recompute()
	if !agg.BarEnabled {
		return agg, apperrors.Invalid(apperrors.CodeValidationNoSelection, "No items selected.")
	}
	for _, a := range agg.Actions {
		if a == action {
			return agg, nil
		}
	}
	return agg, apperrors.Invalid(apperrors.CodeValidationInvalidInput,
		"Action "+string(action)+" is not available for "+c.active.String()+".")
}
