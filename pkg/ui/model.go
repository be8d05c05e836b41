// Package ui is the terminal front end of otpdeck.
//
// The Model is a thin adapter: key presses, frame ticks and fetch results
// are translated into calls on the core components (sync engine, row
// store, selection controller, inline editor), and the returned state is
// rendered. No decision about codes, selection or edits is made here.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/client"
	"github.com/vanderheijden86/otpdeck/pkg/codesync"
	"github.com/vanderheijden86/otpdeck/pkg/config"
	"github.com/vanderheijden86/otpdeck/pkg/debug"
	"github.com/vanderheijden86/otpdeck/pkg/edit"
	"github.com/vanderheijden86/otpdeck/pkg/logging"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/otpuri"
	"github.com/vanderheijden86/otpdeck/pkg/selection"
	"github.com/vanderheijden86/otpdeck/pkg/watcher"
)

// mode is the focused surface.
type mode int

const (
	modeTable mode = iota
	modeFilter
	modeEdit
	modeImport
	modeCreate
	modeExport
	modeConfirmDelete
	modeShare
	modeSharedUsers
	modeHelp
)

const (
	defaultWidth  = 100
	defaultHeight = 30
)

// Params wires the model to its collaborators.
type Params struct {
	API            API
	Config         config.Config
	ConfigPath     string
	ConfigOverride func(*config.Config) // reapplied after every config reload
	Watcher        *watcher.Watcher
	Logger         logging.Logger
	Now            func() time.Time
}

// Model is the bubbletea model of the code tables.
type Model struct {
	api        API
	log        logging.Logger
	cfg        config.Config
	configPath string
	override   func(*config.Config)
	watcher    *watcher.Watcher
	now        func() time.Time

	keys  KeyMap
	theme Theme

	engine *codesync.Engine
	rows   map[model.Table]*codesync.RowSet
	loaded map[model.Table]bool
	sel    *selection.Controller
	agg    selection.Aggregate
	cursor map[model.Table]int

	filters     map[model.Table]string
	filterInput textinput.Model

	editor edit.Session

	mode        mode
	importInput textinput.Model
	create      *createForm
	export      *exportOverlay
	confirmIDs  []model.EntryID
	shareInput  textinput.Model
	shareIDs    []model.EntryID
	shared      *sharedUsersModal
	helpVP      viewport.Model

	bar       progress.Model
	fraction  float64
	remaining time.Duration
	interval  time.Duration

	toast Toast

	width  int
	height int
}

// NewModel builds the model. Rows arrive asynchronously after Init.
func NewModel(p Params) Model {
	if p.Logger == nil {
		p.Logger = logging.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter by issuer, account or owner"
	filter.CharLimit = 64

	imp := textinput.New()
	imp.Prompt = "Import: "
	imp.Placeholder = "path to a QR image or an otpauth URI (ctrl+v pastes)"
	imp.CharLimit = 4096

	share := textinput.New()
	share.Prompt = "Share with: "
	share.Placeholder = "email address"
	share.CharLimit = 254

	bar := progress.New(progress.WithSolidFill(barFresh), progress.WithoutPercentage())
	bar.Width = defaultWidth - 8

	active := p.Config.DefaultTable()
	m := Model{
		api:         p.API,
		log:         p.Logger.With("component", "ui"),
		cfg:         p.Config,
		configPath:  p.ConfigPath,
		override:    p.ConfigOverride,
		watcher:     p.Watcher,
		now:         p.Now,
		keys:        DefaultKeyMap(),
		theme:       DefaultTheme(lipgloss.DefaultRenderer()),
		engine:      codesync.NewEngine(model.Tables()...),
		rows:        map[model.Table]*codesync.RowSet{},
		loaded:      map[model.Table]bool{},
		sel:         selection.New(active),
		cursor:      map[model.Table]int{},
		filters:     map[model.Table]string{},
		filterInput: filter,
		editor:      edit.NewSession(),
		importInput: imp,
		shareInput:  share,
		helpVP:      viewport.New(defaultWidth, defaultHeight-4),
		bar:         bar,
		interval:    p.Config.FrameInterval(),
		width:       defaultWidth,
		height:      defaultHeight,
	}
	for _, t := range model.Tables() {
		m.rows[t] = codesync.NewRowSet(nil)
	}
	m.agg = m.sel.Recompute()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadAllCmd(m.api), frameCmd(m.interval)}
	if m.watcher != nil {
		cmds = append(cmds, WatchConfigCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = max(m.width-8, 10)
		m.helpVP.Width = m.width
		m.helpVP.Height = max(m.height-4, 3)
		return m, nil

	case frameMsg:
		return m.handleFrame(time.Time(msg))

	case tablesLoadedMsg:
		return m.handleTablesLoaded(msg)

	case codesFetchedMsg:
		return m.handleCodesFetched(msg)

	case renameDoneMsg:
		return m.handleRenameDone(msg)

	case qrDecodedMsg:
		if msg.Err != nil {
			m.mode = modeImport
			m.importInput.Focus()
			m.notifyErr(msg.Err)
			return m, nil
		}
		return m.handleDecoded(msg.Text)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case exportDoneMsg:
		if msg.Err != nil {
			m.notifyErr(msg.Err)
			return m, nil
		}
		m.export = newExportOverlay(msg.IDs, msg.PNG)
		m.mode = modeExport
		return m, nil

	case exportSavedMsg:
		if msg.Err != nil {
			m.notifyErr(msg.Err)
			return m, nil
		}
		if m.export != nil {
			m.export.saved = msg.Path
		}
		m.notify("Saved "+msg.Path, ToastSuccess)
		return m, nil

	case sharedUsersMsg:
		if msg.Err == nil && msg.Emails != nil && len(msg.Emails) == 0 {
			m.rows[model.TableOwn].SetShared(msg.ID, false)
		}
		if m.shared == nil || m.shared.id != msg.ID {
			return m, nil
		}
		if msg.Err != nil {
			m.shared.loading = false
			m.shared.err = apperrors.GetMessage(msg.Err)
			return m, nil
		}
		m.shared.SetEmails(msg.Emails)
		return m, nil

	case unshareDoneMsg:
		return m.handleUnshareDone(msg)

	case ConfigChangedMsg:
		cmds := []tea.Cmd{reloadConfigCmd(m.configPath, m.override)}
		if m.watcher != nil {
			cmds = append(cmds, WatchConfigCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case configReloadedMsg:
		return m.handleConfigReloaded(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// huh drives field navigation through its own messages.
	if m.mode == modeCreate && m.create != nil {
		return m.updateCreate(msg)
	}
	return m, nil
}

// handleFrame advances both clocks and dispatches boundary refetches.
func (m Model) handleFrame(now time.Time) (tea.Model, tea.Cmd) {
	tick := m.engine.Tick(now)
	m.fraction = tick.Fraction
	m.remaining = m.engine.Remaining(now)

	cmds := make([]tea.Cmd, 0, len(tick.Fetch)+1)
	for _, t := range tick.Fetch {
		debug.Log("ui: cycle %d refetch %s", tick.Cycle, t)
		cmds = append(cmds, fetchCmd(m.api, t, tick.Cycle))
	}
	if m.toast.Text != "" && !m.toast.Active(now) {
		m.toast = Toast{}
	}
	cmds = append(cmds, frameCmd(m.interval))
	return m, tea.Batch(cmds...)
}

func (m Model) handleTablesLoaded(msg tablesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn(context.Background(), "loading tables failed", "err", msg.Err)
		m.notify("Could not load codes: "+apperrors.GetMessage(msg.Err), ToastError)
		return m, nil
	}
	for t, entries := range msg.Tables {
		m.loadTable(t, entries)
	}
	m.agg = m.sel.ClearSelection()
	return m, nil
}

// loadTable replaces a table's rows, the equivalent of a page render.
func (m *Model) loadTable(t model.Table, entries []model.TotpEntry) {
	rs, ok := m.rows[t]
	if !ok {
		rs = codesync.NewRowSet(nil)
		m.rows[t] = rs
	}
	rs.Load(entries)
	m.loaded[t] = true
	m.agg = m.sel.SetRows(t, rs.IDs())
	m.refilter(t)
}

// refilter re-evaluates an active filter after rows change.
func (m *Model) refilter(t model.Table) {
	if f := m.filters[t]; f != "" {
		m.agg = m.sel.ApplyFilter(t, m.matching(t, f))
	}
	m.clampCursor(t)
}

func (m Model) handleCodesFetched(msg codesFetchedMsg) (tea.Model, tea.Cmd) {
	rs := m.rows[msg.Table]
	if msg.Err != nil {
		m.log.Warn(context.Background(), "code fetch failed",
			"table", msg.Table.String(), "cycle", msg.Cycle, "err", msg.Err)
		if rs != nil && m.loaded[msg.Table] {
			rs.Reconcile(rs.Degrade())
		}
		return m, nil
	}
	if !m.loaded[msg.Table] {
		m.loadTable(msg.Table, msg.Entries)
		return m, nil
	}
	res := rs.Reconcile(msg.Entries)
	debug.Log("ui: %s reconciled changed=%d unmatched=%d untouched=%d",
		msg.Table, len(res.Changed), res.Unmatched, res.Untouched)
	return m, nil
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Info(context.Background(), "mutation failed", "action", msg.Action, "err", msg.Err)
		m.notifyErr(msg.Err)
		return m, nil
	}
	text, level := msg.Success, ToastSuccess
	if msg.Flash.Message != "" {
		text, level = msg.Flash.Message, levelFromCategory(msg.Flash.Category)
	}
	m.notify(text, level)
	m.agg = m.sel.ClearSelection()
	return m, loadAllCmd(m.api)
}

func (m Model) handleConfigReloaded(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn(context.Background(), "config reload failed", "err", msg.Err)
		m.notify("Config reload failed: "+msg.Err.Error(), ToastWarning)
		return m, nil
	}
	m.cfg = msg.Config
	m.interval = m.cfg.FrameInterval()
	if setter, ok := m.api.(CredentialSetter); ok {
		err := setter.SetCredentials(client.Credentials{
			BaseURL:     m.cfg.Server.BaseURL,
			CookieName:  m.cfg.Server.SessionCookie.Name,
			CookieValue: m.cfg.Server.SessionCookie.Value,
		})
		if err != nil {
			m.notifyErr(err)
			return m, nil
		}
	}
	m.log.Info(context.Background(), "config reloaded", "server", m.cfg.Server.BaseURL)
	m.notify("Configuration reloaded.", ToastInfo)
	return m, nil
}

func (m *Model) notify(text string, level ToastLevel) {
	m.toast = newToast(text, level, m.now())
}

func (m *Model) notifyErr(err error) {
	m.notify(apperrors.GetMessage(err), levelForError(err))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeCreate:
		if m.create != nil {
			return m.updateCreate(msg)
		}
	case modeFilter:
		return m.updateFilter(msg)
	case modeEdit:
		return m.updateEdit(msg)
	case modeImport:
		return m.updateImport(msg)
	case modeExport:
		return m.updateExport(msg)
	case modeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case modeShare:
		return m.updateShare(msg)
	case modeSharedUsers:
		return m.updateSharedUsers(msg)
	case modeHelp:
		return m.updateHelp(msg)
	}
	return m.updateTable(msg)
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.sel.Active()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor[active] > 0 {
			m.cursor[active]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[active] < len(m.sel.Visible(active))-1 {
			m.cursor[active]++
		}

	case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
		tables := model.Tables()
		next := (int(active) + 1) % len(tables)
		if key.Matches(msg, m.keys.PrevTab) {
			next = (int(active) + len(tables) - 1) % len(tables)
		}
		m.agg = m.sel.SwitchTab(tables[next])
	case key.Matches(msg, m.keys.TabOwn):
		m.agg = m.sel.SwitchTab(model.TableOwn)
	case key.Matches(msg, m.keys.TabShared):
		m.agg = m.sel.SwitchTab(model.TableShared)

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filterInput.SetValue(m.filters[active])
		m.filterInput.CursorEnd()
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.cursorRow(); ok {
			m.agg = m.sel.Flip(row.ID)
		}
	case key.Matches(msg, m.keys.ToggleAll):
		m.agg = m.sel.FlipAll()

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.cursorRow()
		if !ok || active != model.TableOwn {
			m.notify("Only your own codes can be renamed.", ToastWarning)
			return m, nil
		}
		m.editor, _ = m.editor.Update(edit.Begin{ID: row.ID, Original: row.Account}, m.now())
		if m.editor.State() == edit.Editing {
			m.mode = modeEdit
		}

	case key.Matches(msg, m.keys.Import):
		m.mode = modeImport
		m.importInput.SetValue("")
		cmd := m.importInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Create):
		m.create = newCreateForm(nil, m.width)
		m.mode = modeCreate
		return m, m.create.Init()

	case key.Matches(msg, m.keys.Export):
		agg, err := m.sel.Require(selection.ActionExport)
		if err != nil {
			m.notifyErr(err)
			return m, nil
		}
		m.notify("Exporting…", ToastInfo)
		return m, exportCmd(m.api, agg.IDs)

	case key.Matches(msg, m.keys.Delete):
		agg, err := m.sel.Require(selection.ActionDelete)
		if err != nil {
			m.notifyErr(err)
			return m, nil
		}
		m.confirmIDs = agg.IDs
		m.mode = modeConfirmDelete

	case key.Matches(msg, m.keys.Share):
		agg, err := m.sel.Require(selection.ActionShare)
		if err != nil {
			m.notifyErr(err)
			return m, nil
		}
		m.shareIDs = agg.IDs
		m.shareInput.SetValue("")
		m.mode = modeShare
		cmd := m.shareInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.SharedUsers):
		row, ok := m.cursorRow()
		if !ok || active != model.TableOwn {
			m.notify("Shared users are listed for your own codes only.", ToastWarning)
			return m, nil
		}
		m.shared = newSharedUsersModal(row.ID, row.Label())
		m.mode = modeSharedUsers
		return m, sharedUsersCmd(m.api, row.ID)

	case key.Matches(msg, m.keys.Copy):
		row, ok := m.cursorRow()
		if !ok {
			return m, nil
		}
		if row.Errored {
			m.notify("No code to copy.", ToastWarning)
			return m, nil
		}
		if err := clipboard.WriteAll(row.Code); err != nil {
			m.notify("Clipboard error: "+err.Error(), ToastError)
			return m, nil
		}
		m.notify("Copied code for "+row.Label(), ToastSuccess)

	case key.Matches(msg, m.keys.Reload):
		m.agg = m.sel.ClearSelection()
		m.notify("Reloading…", ToastInfo)
		return m, loadAllCmd(m.api)

	case key.Matches(msg, m.keys.Help):
		m.helpVP.SetContent(renderHelp(m.keys, m.width))
		m.helpVP.GotoTop()
		m.mode = modeHelp
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.sel.Active()
	switch msg.Type {
	case tea.KeyEsc:
		m.filterInput.Blur()
		m.mode = modeTable
		m.setFilter(active, "")
		return m, nil
	case tea.KeyEnter:
		m.filterInput.Blur()
		m.mode = modeTable
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if v := m.filterInput.Value(); v != m.filters[active] {
		m.setFilter(active, v)
	}
	return m, cmd
}

// setFilter stores the query of table t and hides non-matching rows.
func (m *Model) setFilter(t model.Table, query string) {
	m.filters[t] = query
	if strings.TrimSpace(query) == "" {
		m.agg = m.sel.ApplyFilter(t, nil)
	} else {
		m.agg = m.sel.ApplyFilter(t, m.matching(t, query))
	}
	m.cursor[t] = 0
}

// matching returns the ids of table t whose label or owner contains query,
// case-insensitively.
func (m Model) matching(t model.Table, query string) []model.EntryID {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.EntryID{}
	for _, r := range m.rows[t].Rows() {
		hay := strings.ToLower(r.Issuer + " " + r.Account + " " + r.Owner)
		if strings.Contains(hay, q) {
			out = append(out, r.ID)
		}
	}
	return out
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var ev edit.Event
	switch msg.Type {
	case tea.KeyEnter:
		ev = edit.Submit{}
	case tea.KeyEsc:
		ev = edit.Cancel{}
	case tea.KeyBackspace:
		ev = edit.Backspace{}
	case tea.KeyCtrlU:
		ev = edit.SetValue{Value: ""}
	case tea.KeySpace:
		ev = edit.Type{Text: " "}
	case tea.KeyRunes:
		ev = edit.Type{Text: string(msg.Runes)}
	default:
		return m, nil
	}
	var eff edit.Effect
	m.editor, eff = m.editor.Update(ev, m.now())
	return m.applyEditEffect(eff)
}

func (m Model) applyEditEffect(eff edit.Effect) (tea.Model, tea.Cmd) {
	switch e := eff.(type) {
	case edit.Invalid:
		m.notifyErr(e.Err)
	case edit.Throttled:
		m.notifyErr(e.Err)
	case edit.Rename:
		return m, renameCmd(m.api, e.ID, e.Account)
	case edit.Apply:
		m.rows[model.TableOwn].SetAccount(e.ID, e.Account)
		m.refilter(model.TableOwn)
		// A detached rename can land while another row is being edited.
		if m.editor.State() != edit.Editing {
			m.mode = modeTable
		}
	case edit.Restore:
		m.mode = modeTable
	case edit.Rejected:
		m.notifyErr(e.Err)
	}
	return m, nil
}

func (m Model) handleRenameDone(msg renameDoneMsg) (tea.Model, tea.Cmd) {
	var ev edit.Event = edit.Saved{}
	if msg.Err != nil {
		m.log.Info(context.Background(), "rename rejected", "id", msg.ID.String(), "err", msg.Err)
		ev = edit.Failed{Err: msg.Err}
	}
	var eff edit.Effect
	m.editor, eff = m.editor.Update(ev, m.now())
	next, cmd := m.applyEditEffect(eff)
	nm := next.(Model)
	if _, applied := eff.(edit.Apply); applied {
		text := msg.Flash.Message
		if text == "" {
			text = "Account updated."
		}
		nm.notify(text, ToastSuccess)
	}
	return nm, cmd
}

func (m Model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.importInput.Blur()
		m.mode = modeTable
		return m, nil
	case tea.KeyCtrlV:
		text, err := clipboard.ReadAll()
		if err != nil {
			m.notify("Clipboard error: "+err.Error(), ToastError)
			return m, nil
		}
		m.importInput.SetValue(strings.TrimSpace(text))
		m.importInput.CursorEnd()
		return m, nil
	case tea.KeyEnter:
		return m.submitImport(m.importInput.Value())
	}
	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

// submitImport routes pasted URIs straight to validation and file paths
// through the image decoder.
func (m Model) submitImport(value string) (tea.Model, tea.Cmd) {
	value = strings.TrimSpace(value)
	if value == "" {
		m.notify("Enter an image path or an otpauth URI.", ToastWarning)
		return m, nil
	}
	m.importInput.Blur()
	if strings.HasPrefix(strings.ToLower(value), "otpauth") {
		return m.handleDecoded(value)
	}
	path := config.ResolvePath(m.cfg.ImportDir(), value)
	m.mode = modeTable
	m.notify("Decoding "+path+"…", ToastInfo)
	return m, decodeFileCmd(path)
}

// handleDecoded validates a decoded payload. Migration payloads go to the
// server verbatim; single secrets open the create form pre-filled.
func (m Model) handleDecoded(text string) (tea.Model, tea.Cmd) {
	p, err := otpuri.Validate(otpuri.Detect(text), text)
	if err != nil {
		m.mode = modeImport
		m.notifyErr(err)
		cmd := m.importInput.Focus()
		return m, cmd
	}
	if p.Mode == otpuri.ModeMigration {
		m.mode = modeTable
		m.notify("Importing…", ToastInfo)
		return m, importCmd(m.api, p.URI)
	}
	m.create = newCreateForm(&p, m.width)
	m.mode = modeCreate
	return m, m.create.Init()
}

func (m Model) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.create = nil
		m.mode = modeTable
		return m, nil
	}
	cmd := m.create.Update(msg)
	switch {
	case m.create.Completed():
		account, issuer, secret := m.create.Values()
		m.create = nil
		m.mode = modeTable
		return m, createCmd(m.api, account, issuer, secret)
	case m.create.Aborted():
		m.create = nil
		m.mode = modeTable
		return m, nil
	}
	return m, cmd
}

func (m Model) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.export = nil
		m.mode = modeTable
	case "s":
		if m.export != nil {
			return m, saveExportCmd(m.cfg.ExportDir(), m.export.png, m.now())
		}
	}
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		ids := m.confirmIDs
		m.confirmIDs = nil
		m.mode = modeTable
		return m, deleteCmd(m.api, ids)
	case "n", "N", "esc", "q":
		m.confirmIDs = nil
		m.mode = modeTable
	}
	return m, nil
}

func (m Model) updateShare(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.shareInput.Blur()
		m.shareIDs = nil
		m.mode = modeTable
		return m, nil
	case tea.KeyEnter:
		email := strings.TrimSpace(m.shareInput.Value())
		if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
			m.notify("Enter a valid email address.", ToastWarning)
			return m, nil
		}
		ids := m.shareIDs
		m.shareIDs = nil
		m.shareInput.Blur()
		m.mode = modeTable
		return m, shareCmd(m.api, ids, email)
	}
	var cmd tea.Cmd
	m.shareInput, cmd = m.shareInput.Update(msg)
	return m, cmd
}

func (m Model) updateSharedUsers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.shared == nil {
		m.mode = modeTable
		return m, nil
	}
	switch {
	case msg.String() == "esc" || msg.String() == "q":
		m.shared = nil
		m.mode = modeTable
	case key.Matches(msg, m.keys.Up):
		m.shared.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.shared.MoveDown()
	case msg.String() == "x" || msg.String() == "d" || msg.Type == tea.KeyEnter:
		email, ok := m.shared.Selected()
		if !ok || m.shared.busy {
			return m, nil
		}
		m.shared.busy = true
		m.shared.err = ""
		return m, unshareCmd(m.api, m.shared.id, email)
	}
	return m, nil
}

func (m Model) handleUnshareDone(msg unshareDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if m.shared != nil && m.shared.id == msg.ID {
			m.shared.busy = false
			m.shared.err = apperrors.GetMessage(msg.Err)
		}
		m.notifyErr(msg.Err)
		return m, nil
	}
	m.notify("Removed access for "+msg.Email+".", ToastSuccess)
	if msg.Emails == nil {
		// The server did not report what is left.
		if m.shared != nil && m.shared.id == msg.ID {
			m.shared.busy = false
			m.shared.loading = true
		}
		return m, sharedUsersCmd(m.api, msg.ID)
	}
	if m.shared != nil && m.shared.id == msg.ID {
		m.shared.SetEmails(msg.Emails)
	}
	if len(msg.Emails) == 0 {
		m.rows[model.TableOwn].SetShared(msg.ID, false)
	}
	return m, nil
}

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = modeTable
		return m, nil
	}
	var cmd tea.Cmd
	m.helpVP, cmd = m.helpVP.Update(msg)
	return m, cmd
}

// visibleRows returns the rendered rows of t that pass its filter.
func (m Model) visibleRows(t model.Table) []codesync.Row {
	rs := m.rows[t]
	ids := m.sel.Visible(t)
	out := make([]codesync.Row, 0, len(ids))
	for _, id := range ids {
		if r, ok := rs.Get(id); ok {
			out = append(out, r)
		}
	}
	return out
}

func (m Model) cursorRow() (codesync.Row, bool) {
	active := m.sel.Active()
	rows := m.visibleRows(active)
	i := m.cursor[active]
	if i < 0 || i >= len(rows) {
		return codesync.Row{}, false
	}
	return rows[i], true
}

func (m *Model) clampCursor(t model.Table) {
	n := len(m.sel.Visible(t))
	if m.cursor[t] >= n {
		m.cursor[t] = max(n-1, 0)
	}
}

// Aggregate exposes the current selection summary.
func (m Model) Aggregate() selection.Aggregate { return m.agg }

// ActiveTable returns the visible table.
func (m Model) ActiveTable() model.Table { return m.sel.Active() }

// Rows returns the rendered rows of t in order, ignoring filters.
func (m Model) Rows(t model.Table) []codesync.Row { return m.rows[t].Rows() }

// Toast returns the current footer notice.
func (m Model) Toast() Toast { return m.toast }

// center places an overlay in the middle of the screen.
func (m Model) center(s string) string {
	return lipgloss.Place(m.width, max(m.height-2, 1), lipgloss.Center, lipgloss.Center, s)
}
