package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/config"
	"github.com/vanderheijden86/otpdeck/pkg/edit"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/selection"
	"github.com/vanderheijden86/otpdeck/pkg/testutil"
)

// 5s into a period.
var t0 = time.UnixMilli(1_700_000_010_000).Add(5 * time.Second)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestModel(t *testing.T) (Model, *fakeAPI, *fakeClock) {
	t.Helper()
	api := newFakeAPI()
	clk := &fakeClock{t: t0}
	cfg := config.DefaultConfig()
	cfg.UI.FrameIntervalMS = 1
	cfg.Export.Dir = t.TempDir()
	m := NewModel(Params{API: api, Config: cfg, Now: clk.Now})
	m.theme = TestTheme()
	m = settle(t, m, loadAllCmd(api))
	return m, api, clk
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Expected Update to return Model, got %T", next)
	}
	return nm, cmd
}

// isAppMsg reports whether msg is produced by this package's commands.
// Cursor blinks and frame ticks are dropped so settle terminates.
func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case tablesLoadedMsg, codesFetchedMsg, renameDoneMsg, qrDecodedMsg,
		mutationDoneMsg, exportDoneMsg, exportSavedMsg, sharedUsersMsg,
		unshareDoneMsg, configReloadedMsg:
		return true
	}
	return false
}

// settle runs cmd and feeds every resulting app message back into the
// model until no commands are left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("Expected commands to settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if !isAppMsg(msg) {
			continue
		}
		var next tea.Cmd
		m, next = update(t, m, msg)
		queue = append(queue, next)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(t, m, keyMsg(k))
	}
	return m, cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func frame(t *testing.T, m Model, now time.Time) Model {
	t.Helper()
	m, cmd := update(t, m, frameMsg(now))
	return settle(t, m, cmd)
}

func codeOf(m Model, table model.Table, id model.EntryID) string {
	for _, r := range m.Rows(table) {
		if r.ID == id {
			return r.Code
		}
	}
	return ""
}

func TestInitialLoadRendersBothTables(t *testing.T) {
	m, _, _ := newTestModel(t)

	if got := len(m.Rows(model.TableOwn)); got != 3 {
		t.Errorf("Expected 3 own rows, got %d", got)
	}
	if got := len(m.Rows(model.TableShared)); got != 1 {
		t.Errorf("Expected 1 shared row, got %d", got)
	}
	if m.ActiveTable() != model.TableOwn {
		t.Errorf("Expected own table active, got %v", m.ActiveTable())
	}
	if agg := m.Aggregate(); agg.State != selection.Unchecked || agg.BarEnabled {
		t.Errorf("Expected empty selection, got %+v", agg)
	}
}

func TestFrameFetchesOncePerBoundary(t *testing.T) {
	m, api, _ := newTestModel(t)

	m = frame(t, m, t0)
	if api.listCalls[model.TableOwn] != 1 || api.listCalls[model.TableShared] != 1 {
		t.Fatalf("Expected first frame to fetch both tables once, got %v", api.listCalls)
	}

	for now := t0; now.Before(t0.Add(24 * time.Second)); now = now.Add(16 * time.Millisecond) {
		m = frame(t, m, now)
	}
	if api.listCalls[model.TableOwn] != 1 {
		t.Errorf("Expected no refetch inside the period, got %d fetches", api.listCalls[model.TableOwn])
	}

	m = frame(t, m, t0.Add(25*time.Second))
	if api.listCalls[model.TableOwn] != 2 || api.listCalls[model.TableShared] != 2 {
		t.Errorf("Expected one more fetch per table at the boundary, got %v", api.listCalls)
	}
	if m.fraction != 0 {
		t.Errorf("Expected fraction 0 at the boundary, got %v", m.fraction)
	}
}

func TestBoundaryFetchReconcilesChangedCodes(t *testing.T) {
	m, api, _ := newTestModel(t)
	m = frame(t, m, t0)

	api.setCode(model.TableOwn, "1", "999999")
	m = frame(t, m, t0.Add(25*time.Second))

	if got := codeOf(m, model.TableOwn, "1"); got != "999999" {
		t.Errorf("Expected row 1 to show the new code, got %q", got)
	}
	if got := codeOf(m, model.TableOwn, "2"); got != "222222" {
		t.Errorf("Expected row 2 untouched, got %q", got)
	}
}

func TestFailedFetchDegradesRows(t *testing.T) {
	m, api, _ := newTestModel(t)
	m = frame(t, m, t0)

	api.failList = true
	m = frame(t, m, t0.Add(25*time.Second))

	for _, r := range m.Rows(model.TableOwn) {
		if r.Code != model.ErrorCode || !r.Errored {
			t.Errorf("Expected row %s degraded to Error, got %+v", r.ID, r)
		}
	}
	if m.mode != modeTable {
		t.Errorf("Expected no modal on fetch failure, got mode %d", m.mode)
	}

	api.failList = false
	m = frame(t, m, t0.Add(55*time.Second))
	if r := m.Rows(model.TableOwn)[0]; r.Errored || r.Code != "111111" {
		t.Errorf("Expected row to recover on the next cycle, got %+v", r)
	}
}

func TestSelectionAndTabSwitch(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "space", "down", "down", "space")
	agg := m.Aggregate()
	if agg.State != selection.Indeterminate || agg.Joined != "1,3" {
		t.Fatalf("Expected indeterminate with 1,3, got %v %q", agg.State, agg.Joined)
	}
	if !strings.Contains(m.View(), "[-]") {
		t.Error("Expected header checkbox to render indeterminate")
	}

	m, _ = press(t, m, "tab")
	if m.ActiveTable() != model.TableShared {
		t.Fatalf("Expected shared table active, got %v", m.ActiveTable())
	}
	if m.Aggregate().Count() != 0 {
		t.Errorf("Expected tab switch to clear the selection, got %d", m.Aggregate().Count())
	}
	if got := m.Aggregate().Actions; len(got) != 1 || got[0] != selection.ActionExport {
		t.Errorf("Expected shared table to offer export only, got %v", got)
	}
}

func TestToggleAllOnlyTouchesFilteredRows(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "/", "git", "enter")
	if got := len(m.visibleRows(model.TableOwn)); got != 2 {
		t.Fatalf("Expected 2 rows matching 'git', got %d", got)
	}

	m, _ = press(t, m, "a")
	agg := m.Aggregate()
	if agg.State != selection.Checked || agg.Joined != "1,3" {
		t.Errorf("Expected visible rows 1,3 checked, got %v %q", agg.State, agg.Joined)
	}

	m, _ = press(t, m, "/", "zzz")
	if agg := m.Aggregate(); agg.Count() != 0 || agg.State != selection.Unchecked || agg.BarEnabled {
		t.Errorf("Expected filter change to clear the selection, got %+v", agg)
	}

	m, _ = press(t, m, "esc")
	if got := len(m.visibleRows(model.TableOwn)); got != 3 {
		t.Errorf("Expected esc to clear the filter, got %d rows", got)
	}
}

func TestBulkActionWithoutSelectionIsRejectedLocally(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, cmd := press(t, m, "D")
	if cmd != nil {
		t.Error("Expected no command for an empty selection")
	}
	if m.mode != modeTable {
		t.Errorf("Expected no confirmation prompt, got mode %d", m.mode)
	}
	if m.Toast().Text != "No items selected." {
		t.Errorf("Expected no-selection notice, got %q", m.Toast().Text)
	}
	if len(api.deletes) != 0 {
		t.Errorf("Expected no delete request, got %v", api.deletes)
	}
}

func TestDeleteConfirmsAndReloads(t *testing.T) {
	m, api, _ := newTestModel(t)
	loads := api.loadAlls

	m, _ = press(t, m, "space", "down", "space", "D")
	if m.mode != modeConfirmDelete {
		t.Fatalf("Expected confirmation prompt, got mode %d", m.mode)
	}
	m, cmd := press(t, m, "y")
	m = settle(t, m, cmd)

	if len(api.deletes) != 1 || api.deletes[0] != "1,2" {
		t.Errorf("Expected delete of 1,2, got %v", api.deletes)
	}
	if api.loadAlls != loads+1 {
		t.Errorf("Expected a reload after delete, got %d loads", api.loadAlls-loads)
	}
	if m.Aggregate().Count() != 0 {
		t.Error("Expected selection cleared after reload")
	}
	if m.Toast().Text != "TOTP deleted successfully." {
		t.Errorf("Expected server flash as notice, got %q", m.Toast().Text)
	}
}

func TestDeleteCanBeDeclined(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, _ = press(t, m, "space", "D", "n")
	if m.mode != modeTable || len(api.deletes) != 0 {
		t.Errorf("Expected decline to send nothing, got mode %d deletes %v", m.mode, api.deletes)
	}
	if m.Aggregate().Count() != 1 {
		t.Error("Expected selection kept after declining")
	}
}

func TestShareSendsSelectedIDs(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, _ = press(t, m, "space", "S")
	if m.mode != modeShare {
		t.Fatalf("Expected email prompt, got mode %d", m.mode)
	}
	m, _ = press(t, m, "nobody", "enter")
	if m.mode != modeShare || len(api.shares) != 0 {
		t.Fatal("Expected invalid email to stay in the prompt")
	}
	m, _ = press(t, m, "ctrl+u")
	m.shareInput.SetValue("dave@corp")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if len(api.shares) != 1 || api.shares[0] != "1->dave@corp" {
		t.Errorf("Expected share of 1 with dave@corp, got %v", api.shares)
	}
	if m.Toast().Text != "Shared with dave@corp." {
		t.Errorf("Expected fallback notice, got %q", m.Toast().Text)
	}
}

func TestInlineRenameAppliesInPlace(t *testing.T) {
	m, api, _ := newTestModel(t)
	loads := api.loadAlls

	m, _ = press(t, m, "e")
	if m.mode != modeEdit || m.editor.Value() != "alice" {
		t.Fatalf("Expected editor pre-filled with alice, got mode %d value %q", m.mode, m.editor.Value())
	}
	m, _ = press(t, m, "work")
	if m.editor.Value() != "work" {
		t.Errorf("Expected first keystroke to replace the label, got %q", m.editor.Value())
	}
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if len(api.renames) != 1 || api.renames[0] != "1=work" {
		t.Errorf("Expected one rename of 1 to work, got %v", api.renames)
	}
	if got := m.Rows(model.TableOwn)[0].Account; got != "work" {
		t.Errorf("Expected row label updated in place, got %q", got)
	}
	if m.mode != modeTable {
		t.Errorf("Expected editor closed, got mode %d", m.mode)
	}
	if api.loadAlls != loads {
		t.Error("Expected rename to skip the full reload")
	}
}

func TestInlineRenameRejectsEmptyLocally(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, _ = press(t, m, "e", "ctrl+u", "   ", "enter")
	if len(api.renames) != 0 {
		t.Errorf("Expected no rename request, got %v", api.renames)
	}
	if m.mode != modeEdit {
		t.Errorf("Expected to stay in edit mode, got %d", m.mode)
	}
	if m.Toast().Text != "Account name cannot be empty." {
		t.Errorf("Expected empty-label notice, got %q", m.Toast().Text)
	}
}

func TestInlineRenameThrottlesRapidSubmits(t *testing.T) {
	m, api, clk := newTestModel(t)

	m, cmd := press(t, m, "e", "one", "enter")
	m = settle(t, m, cmd)

	clk.Advance(500 * time.Millisecond)
	m, cmd = press(t, m, "e", "two", "enter")
	if cmd != nil {
		m = settle(t, m, cmd)
	}
	if len(api.renames) != 1 {
		t.Errorf("Expected second submit inside 2s to be dropped, got %v", api.renames)
	}
	if m.Toast().Text != "Please wait before saving again." {
		t.Errorf("Expected throttle notice, got %q", m.Toast().Text)
	}

	clk.Advance(2 * time.Second)
	m, cmd = press(t, m, "enter")
	m = settle(t, m, cmd)
	if len(api.renames) != 2 || api.renames[1] != "1=two" {
		t.Errorf("Expected submit after the window to go through, got %v", api.renames)
	}
}

func TestInlineRenameFailureKeepsValue(t *testing.T) {
	m, api, _ := newTestModel(t)
	api.renameErr = errServer("Item not found")

	m, cmd := press(t, m, "e", "x", "enter")
	m = settle(t, m, cmd)

	if m.mode != modeEdit || m.editor.Value() != "x" {
		t.Errorf("Expected editor kept with typed value, got mode %d value %q", m.mode, m.editor.Value())
	}
	if m.editor.Err() != "Item not found" {
		t.Errorf("Expected server message, got %q", m.editor.Err())
	}

	m, _ = press(t, m, "esc")
	if got := m.Rows(model.TableOwn)[0].Account; got != "alice" {
		t.Errorf("Expected original label restored, got %q", got)
	}
}

func TestPendingRenameDoesNotTrapEditor(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, pending := press(t, m, "e", "x", "enter")
	if pending == nil || m.editor.State() != edit.Saving {
		t.Fatalf("Expected a rename in flight, got state %v", m.editor.State())
	}

	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Error("Expected no second request while saving")
	}
	if m.Toast().Text != "A rename is already being saved." {
		t.Errorf("Expected busy notice, got %q", m.Toast().Text)
	}

	m, _ = press(t, m, "esc")
	if m.mode != modeTable {
		t.Fatalf("Expected esc to leave the editor, got mode %d", m.mode)
	}
	m, _ = press(t, m, "down", "tab", "/")
	if m.mode != modeFilter || m.ActiveTable() != model.TableShared {
		t.Fatalf("Expected navigation to work, got mode %d table %v", m.mode, m.ActiveTable())
	}
	m, _ = press(t, m, "esc")

	m = settle(t, m, pending)
	if len(api.renames) != 1 {
		t.Errorf("Expected exactly one rename, got %v", api.renames)
	}
	if got := m.Rows(model.TableOwn)[0].Account; got != "x" {
		t.Errorf("Expected late success applied, got %q", got)
	}
	if m.mode != modeTable {
		t.Errorf("Expected table mode, got %d", m.mode)
	}
}

func TestPendingRenameFailureIsNotified(t *testing.T) {
	m, api, _ := newTestModel(t)
	api.renameErr = errServer("Item not found")

	m, pending := press(t, m, "e", "x", "enter")
	m, _ = press(t, m, "esc")
	m = settle(t, m, pending)

	if m.mode != modeTable {
		t.Errorf("Expected table mode, got %d", m.mode)
	}
	if m.Toast().Text != "Item not found" {
		t.Errorf("Expected failure notice, got %q", m.Toast().Text)
	}
	if got := m.Rows(model.TableOwn)[0].Account; got != "alice" {
		t.Errorf("Expected original label kept, got %q", got)
	}
}

func TestRenameReappliesFilter(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "/", "alice", "enter")
	if got := len(m.visibleRows(model.TableOwn)); got != 2 {
		t.Fatalf("Expected 2 rows matching 'alice', got %d", got)
	}
	m, cmd := press(t, m, "e", "work", "enter")
	m = settle(t, m, cmd)

	vis := m.visibleRows(model.TableOwn)
	if len(vis) != 1 || vis[0].ID != "2" {
		t.Errorf("Expected renamed row filtered out, got %v", vis)
	}
}

func TestEditIsOwnTableOnly(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "2", "e")
	if m.mode != modeTable {
		t.Errorf("Expected no editor on the shared table, got mode %d", m.mode)
	}
}

func TestImportForwardsMigrationVerbatim(t *testing.T) {
	m, api, _ := newTestModel(t)
	uri := "otpauth-migration://offline?data=CjEKCkhlbGxvId6tvu8SBGFsaWNlGgZHaXRIdWIgASgBMAI%3D"

	m, _ = press(t, m, "i", uri)
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if len(api.imports) != 1 || api.imports[0] != uri {
		t.Errorf("Expected migration URI forwarded verbatim, got %v", api.imports)
	}
	if m.mode != modeTable {
		t.Errorf("Expected import prompt closed, got mode %d", m.mode)
	}
}

func TestImportSingleSecretOpensPrefilledForm(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, _ = press(t, m, "i", testutil.SingleURI("GitHub", "alice", "JBSWY3DPEHPK3PXP"))
	m, _ = press(t, m, "enter")

	if m.mode != modeCreate || m.create == nil {
		t.Fatalf("Expected create form, got mode %d", m.mode)
	}
	account, issuer, secret := m.create.Values()
	if account != "alice" || issuer != "GitHub" || secret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("Expected form pre-filled, got %q %q %q", account, issuer, secret)
	}
	if len(api.imports) != 0 {
		t.Error("Expected single secrets to skip the import endpoint")
	}

	m, _ = press(t, m, "esc")
	if m.mode != modeTable || m.create != nil {
		t.Errorf("Expected esc to close the form, got mode %d", m.mode)
	}
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	m, api, _ := newTestModel(t)

	m, _ = press(t, m, "i", "otpauth://hotp/x?secret=JBSWY3DPEHPK3PXP")
	m, _ = press(t, m, "enter")

	if m.mode != modeImport {
		t.Errorf("Expected to stay in the import prompt, got mode %d", m.mode)
	}
	if m.Toast().Text != "Unsupported OTP type: hotp" {
		t.Errorf("Expected validation notice, got %q", m.Toast().Text)
	}
	if len(api.imports) != 0 || len(api.creates) != 0 {
		t.Error("Expected no network call for an invalid payload")
	}
}

func TestImportDecodesImageFile(t *testing.T) {
	m, api, _ := newTestModel(t)
	uri := testutil.MigrationURI("abc")
	path := testutil.WriteQRFile(t, t.TempDir(), "code.png", uri)

	m, _ = press(t, m, "i", path)
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if len(api.imports) != 1 || api.imports[0] != uri {
		t.Errorf("Expected decoded migration URI imported, got %v", api.imports)
	}
}

func TestExportShowsOverlayAndSaves(t *testing.T) {
	m, api, _ := newTestModel(t)
	api.exportPNG = testutil.QRPNG(t, testutil.MigrationURI("xyz"))

	m, cmd := press(t, m, "space", "x")
	m = settle(t, m, cmd)

	if m.mode != modeExport || m.export == nil {
		t.Fatalf("Expected export overlay, got mode %d", m.mode)
	}
	if m.export.err != nil || m.export.art == "" {
		t.Errorf("Expected a terminal QR code, got err %v", m.export.err)
	}
	if m.export.payload != "otpauth-migration://offline?data=xyz" {
		t.Errorf("Expected overlay to carry the payload, got %q", m.export.payload)
	}

	m, cmd = press(t, m, "s")
	m = settle(t, m, cmd)
	if m.export.saved == "" || !strings.HasPrefix(m.export.saved, m.cfg.ExportDir()) {
		t.Errorf("Expected PNG saved under the export dir, got %q", m.export.saved)
	}

	m, _ = press(t, m, "esc")
	if m.mode != modeTable {
		t.Errorf("Expected overlay closed, got mode %d", m.mode)
	}
}

func TestSharedUsersUnshare(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, cmd := press(t, m, "u")
	m = settle(t, m, cmd)
	if m.mode != modeSharedUsers || m.shared == nil || len(m.shared.emails) != 2 {
		t.Fatalf("Expected modal with 2 users, got mode %d", m.mode)
	}

	m, cmd = press(t, m, "x")
	m = settle(t, m, cmd)
	if len(m.shared.emails) != 1 || m.shared.emails[0] != "carol@corp" {
		t.Errorf("Expected bob removed, got %v", m.shared.emails)
	}
	if !m.Rows(model.TableOwn)[0].Shared {
		t.Error("Expected row still marked shared")
	}

	m, cmd = press(t, m, "x")
	m = settle(t, m, cmd)
	if m.Rows(model.TableOwn)[0].Shared {
		t.Error("Expected shared mark removed once nobody is left")
	}
}

func TestUnshareWithoutEmailsRefreshesList(t *testing.T) {
	m, api, _ := newTestModel(t)
	api.unshareQuiet = true

	m, cmd := press(t, m, "u")
	m = settle(t, m, cmd)
	m, cmd = press(t, m, "x")
	m = settle(t, m, cmd)
	if m.shared == nil || m.shared.loading || len(m.shared.emails) != 1 {
		t.Fatalf("Expected modal refreshed to one user, got %+v", m.shared)
	}
	if !m.Rows(model.TableOwn)[0].Shared {
		t.Error("Expected shared mark kept while users remain")
	}

	m, cmd = press(t, m, "x")
	m = settle(t, m, cmd)
	if m.Rows(model.TableOwn)[0].Shared {
		t.Error("Expected shared mark removed after the refresh came back empty")
	}
}

func TestReloadClearsSelection(t *testing.T) {
	m, api, _ := newTestModel(t)
	loads := api.loadAlls

	m, _ = press(t, m, "a")
	if m.Aggregate().State != selection.Checked {
		t.Fatal("Expected all rows checked")
	}
	m, cmd := press(t, m, "ctrl+r")
	m = settle(t, m, cmd)

	if api.loadAlls != loads+1 {
		t.Errorf("Expected one reload, got %d", api.loadAlls-loads)
	}
	if m.Aggregate().Count() != 0 {
		t.Error("Expected reload to clear the selection")
	}
}

func TestConfigReloadSwapsCredentials(t *testing.T) {
	m, api, _ := newTestModel(t)

	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = "https://otp.example.com"
	cfg.Server.SessionCookie.Value = "abc"
	m, _ = update(t, m, configReloadedMsg{Config: cfg})

	if len(api.creds) != 1 {
		t.Fatalf("Expected credentials swapped once, got %d", len(api.creds))
	}
	if api.creds[0].BaseURL != "https://otp.example.com" || api.creds[0].CookieValue != "abc" {
		t.Errorf("Expected new credentials, got %+v", api.creds[0])
	}
	if m.cfg.Server.BaseURL != "https://otp.example.com" {
		t.Errorf("Expected config replaced, got %q", m.cfg.Server.BaseURL)
	}
}

func TestToastExpiresOnFrame(t *testing.T) {
	m, _, clk := newTestModel(t)

	m, _ = press(t, m, "D")
	if m.Toast().Text == "" {
		t.Fatal("Expected a notice")
	}
	clk.Advance(toastTTL + time.Second)
	m = frame(t, m, clk.Now())
	if m.Toast().Text != "" {
		t.Errorf("Expected notice expired, got %q", m.Toast().Text)
	}
}

func TestViewRendersCountdownAndRows(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = frame(t, m, t0)

	out := m.View()
	for _, want := range []string{"My codes (3)", "Shared with me (1)", "25s", "111 111", "GitHub: alice", "shared"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	m, _ = press(t, m, "2")
	out = m.View()
	if !strings.Contains(out, "bob@corp") {
		t.Error("Expected owner column on the shared table")
	}
}

func TestFormatCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"123456", "123 456"},
		{"Error", "Error"},
		{"12345678", "12345678"},
	}
	for _, tt := range tests {
		if got := formatCode(tt.in); got != tt.want {
			t.Errorf("formatCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func errServer(msg string) error {
	return apperrors.New(apperrors.CodeServerRejected, msg)
}
