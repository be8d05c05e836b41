package ui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/otpdeck/pkg/client"
	"github.com/vanderheijden86/otpdeck/pkg/config"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/qr"
	"github.com/vanderheijden86/otpdeck/pkg/watcher"
)

// API is the server surface the UI drives. *client.Client implements it.
type API interface {
	List(ctx context.Context, table model.Table) ([]model.TotpEntry, error)
	LoadAll(ctx context.Context) (client.Tables, error)
	SharedUsers(ctx context.Context, id model.EntryID) ([]string, error)
	Unshare(ctx context.Context, id model.EntryID, email string) ([]string, error)
	Rename(ctx context.Context, id model.EntryID, account string) (client.Flash, error)
	Export(ctx context.Context, ids []model.EntryID) ([]byte, error)
	Import(ctx context.Context, uri string) (client.Flash, error)
	Create(ctx context.Context, account, issuer, secret string) (client.Flash, error)
	Delete(ctx context.Context, ids []model.EntryID) (client.Flash, error)
	Share(ctx context.Context, ids []model.EntryID, email string) (client.Flash, error)
}

// CredentialSetter is implemented by APIs whose credentials can be swapped
// after a config reload.
type CredentialSetter interface {
	SetCredentials(client.Credentials) error
}

// frameMsg drives the countdown and the boundary clock.
type frameMsg time.Time

// tablesLoadedMsg carries a full reload of both tables.
type tablesLoadedMsg struct {
	Tables client.Tables
	Err    error
}

// codesFetchedMsg carries one scheduled refetch.
type codesFetchedMsg struct {
	Table   model.Table
	Cycle   int64
	Entries []model.TotpEntry
	Err     error
}

// renameDoneMsg reports the outcome of an inline rename.
type renameDoneMsg struct {
	ID    model.EntryID
	Flash client.Flash
	Err   error
}

// qrDecodedMsg carries text decoded from an image file.
type qrDecodedMsg struct {
	Path string
	Text string
	Err  error
}

// mutationDoneMsg reports a create/import/delete/share call. Success
// triggers a full reload.
type mutationDoneMsg struct {
	Action  string
	Flash   client.Flash
	Err     error
	Success string // notice shown when the server sent none
}

// exportDoneMsg carries the exported PNG.
type exportDoneMsg struct {
	IDs []model.EntryID
	PNG []byte
	Err error
}

// exportSavedMsg reports where the PNG was written.
type exportSavedMsg struct {
	Path string
	Err  error
}

// sharedUsersMsg carries the emails an entry is shared with.
type sharedUsersMsg struct {
	ID     model.EntryID
	Emails []string
	Err    error
}

// unshareDoneMsg carries the emails left after an unshare.
type unshareDoneMsg struct {
	ID     model.EntryID
	Email  string
	Emails []string
	Err    error
}

// ConfigChangedMsg is sent when the config file changes on disk.
type ConfigChangedMsg struct{}

// configReloadedMsg carries the re-read configuration.
type configReloadedMsg struct {
	Config config.Config
	Err    error
}

func frameCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func loadAllCmd(api API) tea.Cmd {
	return func() tea.Msg {
		tables, err := api.LoadAll(context.Background())
		return tablesLoadedMsg{Tables: tables, Err: err}
	}
}

// fetchCmd refetches one table. No timeout is applied; the result is
// applied whenever it arrives.
func fetchCmd(api API, table model.Table, cycle int64) tea.Cmd {
	return func() tea.Msg {
		entries, err := api.List(context.Background(), table)
		return codesFetchedMsg{Table: table, Cycle: cycle, Entries: entries, Err: err}
	}
}

// renameTimeout bounds a rename so a hung request still reports back.
const renameTimeout = 30 * time.Second

func renameCmd(api API, id model.EntryID, account string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), renameTimeout)
		defer cancel()
		flash, err := api.Rename(ctx, id, account)
		return renameDoneMsg{ID: id, Flash: flash, Err: err}
	}
}

func decodeFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		text, err := qr.DecodeFile(path)
		return qrDecodedMsg{Path: path, Text: text, Err: err}
	}
}

func importCmd(api API, uri string) tea.Cmd {
	return func() tea.Msg {
		flash, err := api.Import(context.Background(), uri)
		return mutationDoneMsg{Action: "import", Flash: flash, Err: err, Success: "Import submitted."}
	}
}

func createCmd(api API, account, issuer, secret string) tea.Cmd {
	return func() tea.Msg {
		flash, err := api.Create(context.Background(), account, issuer, secret)
		return mutationDoneMsg{Action: "create", Flash: flash, Err: err, Success: "TOTP successfully created!"}
	}
}

func deleteCmd(api API, ids []model.EntryID) tea.Cmd {
	return func() tea.Msg {
		flash, err := api.Delete(context.Background(), ids)
		return mutationDoneMsg{Action: "delete", Flash: flash, Err: err, Success: "TOTP deleted successfully."}
	}
}

func shareCmd(api API, ids []model.EntryID, email string) tea.Cmd {
	return func() tea.Msg {
		flash, err := api.Share(context.Background(), ids, email)
		return mutationDoneMsg{Action: "share", Flash: flash, Err: err, Success: "Shared with " + email + "."}
	}
}

func exportCmd(api API, ids []model.EntryID) tea.Cmd {
	return func() tea.Msg {
		png, err := api.Export(context.Background(), ids)
		return exportDoneMsg{IDs: ids, PNG: png, Err: err}
	}
}

func saveExportCmd(dir string, png []byte, now time.Time) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return exportSavedMsg{Err: err}
		}
		path := filepath.Join(dir, "totp_export_"+now.Format("20060102-150405")+".png")
		if err := os.WriteFile(path, png, 0o600); err != nil {
			return exportSavedMsg{Err: err}
		}
		return exportSavedMsg{Path: path}
	}
}

func sharedUsersCmd(api API, id model.EntryID) tea.Cmd {
	return func() tea.Msg {
		emails, err := api.SharedUsers(context.Background(), id)
		return sharedUsersMsg{ID: id, Emails: emails, Err: err}
	}
}

func unshareCmd(api API, id model.EntryID, email string) tea.Cmd {
	return func() tea.Msg {
		emails, err := api.Unshare(context.Background(), id, email)
		return unshareDoneMsg{ID: id, Email: email, Emails: emails, Err: err}
	}
}

// WatchConfigCmd waits for the config file to change.
func WatchConfigCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return ConfigChangedMsg{}
	}
}

// reloadConfigCmd re-reads path and reapplies env and flag overrides.
func reloadConfigCmd(path string, override func(*config.Config)) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return configReloadedMsg{Err: err}
		}
		cfg.ApplyEnv(nil)
		if override != nil {
			override(&cfg)
		}
		return configReloadedMsg{Config: cfg}
	}
}
