package ui

import (
	"context"
	"sync"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/client"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// fakeAPI is an in-memory server surface with call recording.
type fakeAPI struct {
	mu sync.Mutex

	tables    map[model.Table][]model.TotpEntry
	shared    map[model.EntryID][]string
	exportPNG []byte
	failList  bool
	renameErr error
	// unshareQuiet makes Unshare answer without the remaining emails.
	unshareQuiet bool

	listCalls map[model.Table]int
	loadAlls  int
	renames   []string
	imports   []string
	creates   [][3]string
	deletes   []string
	shares    []string
	creds     []client.Credentials
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tables: map[model.Table][]model.TotpEntry{
			model.TableOwn: {
				{ID: "1", Code: "111111", Account: "alice", Issuer: "GitHub", Shared: true},
				{ID: "2", Code: "222222", Account: "alice@corp", Issuer: "Okta"},
				{ID: "3", Code: "333333", Account: "ops", Issuer: "GitLab"},
			},
			model.TableShared: {
				{ID: "10", Code: "101010", Account: "deploy", Issuer: "AWS", Owner: "bob@corp"},
			},
		},
		shared:    map[model.EntryID][]string{"1": {"bob@corp", "carol@corp"}},
		listCalls: map[model.Table]int{},
	}
}

func (f *fakeAPI) setCode(t model.Table, id model.EntryID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tables[t] {
		if f.tables[t][i].ID == id {
			f.tables[t][i].Code = code
		}
	}
}

func (f *fakeAPI) List(_ context.Context, t model.Table) ([]model.TotpEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[t]++
	if f.failList {
		return nil, apperrors.New(apperrors.CodeTransportFetchFailed, "Could not reach the server.")
	}
	return append([]model.TotpEntry(nil), f.tables[t]...), nil
}

func (f *fakeAPI) LoadAll(_ context.Context) (client.Tables, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadAlls++
	out := client.Tables{}
	for t, entries := range f.tables {
		out[t] = append([]model.TotpEntry(nil), entries...)
	}
	return out, nil
}

func (f *fakeAPI) SharedUsers(_ context.Context, id model.EntryID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.shared[id]...), nil
}

func (f *fakeAPI) Unshare(_ context.Context, id model.EntryID, email string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var left []string
	for _, e := range f.shared[id] {
		if e != email {
			left = append(left, e)
		}
	}
	f.shared[id] = left
	if f.unshareQuiet {
		return nil, nil
	}
	return append([]string{}, left...), nil
}

func (f *fakeAPI) Rename(_ context.Context, id model.EntryID, account string) (client.Flash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames = append(f.renames, id.String()+"="+account)
	if f.renameErr != nil {
		return client.Flash{}, f.renameErr
	}
	return client.Flash{Message: "Account updated successfully.", Category: "success"}, nil
}

func (f *fakeAPI) Export(_ context.Context, _ []model.EntryID) ([]byte, error) {
	return f.exportPNG, nil
}

func (f *fakeAPI) Import(_ context.Context, uri string) (client.Flash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports = append(f.imports, uri)
	return client.Flash{Message: "Imported 2 codes.", Category: "success"}, nil
}

func (f *fakeAPI) Create(_ context.Context, account, issuer, secret string) (client.Flash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, [3]string{account, issuer, secret})
	return client.Flash{}, nil
}

func (f *fakeAPI) Delete(_ context.Context, ids []model.EntryID) (client.Flash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, model.JoinIDs(ids))
	return client.Flash{Message: "TOTP deleted successfully.", Category: "success"}, nil
}

func (f *fakeAPI) Share(_ context.Context, ids []model.EntryID, email string) (client.Flash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares = append(f.shares, model.JoinIDs(ids)+"->"+email)
	return client.Flash{}, nil
}

func (f *fakeAPI) SetCredentials(c client.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, c)
	return nil
}
