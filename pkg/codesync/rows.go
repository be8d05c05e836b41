package codesync

import (
	"github.com/vanderheijden86/otpdeck/pkg/debug"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// Row is one rendered table row bound to a server entry by ID.
type Row struct {
	ID      model.EntryID
	Code    string
	Account string
	Issuer  string
	Owner   string
	Shared  bool
	Errored bool // render the code with error styling
}

// Label mirrors model.TotpEntry.Label.
func (r Row) Label() string {
	return model.TotpEntry{Account: r.Account, Issuer: r.Issuer}.Label()
}

// RowSet is the ordered row store of one table. It is the only place codes
// live on the client; nothing is cached across a reload.
type RowSet struct {
	order []model.EntryID
	byID  map[model.EntryID]*Row
}

// NewRowSet renders entries into a fresh row set. Duplicate ids after the
// first are dropped so every row id stays unique.
func NewRowSet(entries []model.TotpEntry) *RowSet {
	rs := &RowSet{}
	rs.Load(entries)
	return rs
}

// Load replaces every row with entries, in order.
func (rs *RowSet) Load(entries []model.TotpEntry) {
	rs.order = make([]model.EntryID, 0, len(entries))
	rs.byID = make(map[model.EntryID]*Row, len(entries))
	for _, e := range entries {
		if _, dup := rs.byID[e.ID]; dup {
			debug.Log("codesync: dropping duplicate row id %s", e.ID)
			continue
		}
		rs.order = append(rs.order, e.ID)
		rs.byID[e.ID] = &Row{
			ID:      e.ID,
			Code:    e.Code,
			Account: e.Account,
			Issuer:  e.Issuer,
			Owner:   e.Owner,
			Shared:  e.Shared,
			Errored: e.IsError(),
		}
	}
}

// Len returns the number of rows.
func (rs *RowSet) Len() int { return len(rs.order) }

// IDs returns row ids in display order.
func (rs *RowSet) IDs() []model.EntryID {
	return append([]model.EntryID(nil), rs.order...)
}

// Rows returns copies of all rows in display order.
func (rs *RowSet) Rows() []Row {
	out := make([]Row, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, *rs.byID[id])
	}
	return out
}

// Get returns a copy of the row bound to id.
func (rs *RowSet) Get(id model.EntryID) (Row, bool) {
	r, ok := rs.byID[id]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// SetAccount replaces a row's account label after a successful rename.
func (rs *RowSet) SetAccount(id model.EntryID, account string) bool {
	r, ok := rs.byID[id]
	if ok {
		r.Account = account
	}
	return ok
}

// SetShared toggles the shared affordance of a row.
func (rs *RowSet) SetShared(id model.EntryID, shared bool) bool {
	r, ok := rs.byID[id]
	if ok {
		r.Shared = shared
	}
	return ok
}

// Result summarizes one reconciliation pass.
type Result struct {
	Changed   []model.EntryID // rows whose code text changed
	Unmatched int             // entries with no bound row (ignored)
	Untouched int             // rows with no entry in the response (kept as-is)
}

// Reconcile merges fetched entries into the bound rows. A row's code and
// error styling change only when the text differs. Rows missing from
// entries keep their previous code. Entries without a row are ignored.
func (rs *RowSet) Reconcile(entries []model.TotpEntry) Result {
	defer metrics.Timer(metrics.Reconcile)()

	var res Result
	seen := make(map[model.EntryID]bool, len(entries))
	for _, e := range entries {
		r, ok := rs.byID[e.ID]
		if !ok {
			res.Unmatched++
			continue
		}
		seen[e.ID] = true
		if r.Code == e.Code {
			continue
		}
		r.Code = e.Code
		r.Errored = e.IsError()
		res.Changed = append(res.Changed, e.ID)
	}
	for _, id := range rs.order {
		if !seen[id] {
			res.Untouched++
		}
	}
	return res
}

// Degrade synthesizes an error entry for every rendered row, so a failed
// fetch shows on each row instead of vanishing.
func (rs *RowSet) Degrade() []model.TotpEntry {
	out := make([]model.TotpEntry, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, model.TotpEntry{ID: id, Code: model.ErrorCode})
	}
	return out
}
