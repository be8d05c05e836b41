package client

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/internal/testserver"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/qr"
)

const secretA = "JBSWY3DPEHPK3PXP"
const secretB = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func newPair(t *testing.T, opts ...testserver.Option) (*testserver.Server, *Client) {
	t.Helper()
	srv := testserver.New(opts...)
	t.Cleanup(srv.Close)
	c, err := New(Credentials{BaseURL: srv.URL, CookieValue: "s3cret"})
	require.NoError(t, err)
	return srv, c
}

func TestListReturnsServerCodes(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	srv, c := newPair(t, testserver.WithClock(func() time.Time { return fixed }))
	srv.AddOwn("alice", "GitHub", secretA)
	srv.AddOwn("bob", "", secretB)

	entries, err := c.List(context.Background(), model.TableOwn)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.EntryID("1"), entries[0].ID)
	assert.Equal(t, srv.CodeFor(secretA), entries[0].Code)
	assert.Equal(t, "GitHub", entries[0].Issuer)
	assert.Equal(t, "bob", entries[1].Account)
}

func TestListAcceptsEnvelopes(t *testing.T) {
	for _, key := range EnvelopeKeys {
		t.Run(key, func(t *testing.T) {
			srv, c := newPair(t)
			srv.AddOwn("alice", "", secretA)
			srv.SetEnvelope(model.TableOwn.ListPath(), key)

			listing, err := c.ListShape(context.Background(), model.TableOwn)
			require.NoError(t, err)
			assert.Equal(t, ShapeEnvelope, listing.Shape)
			assert.Equal(t, key, listing.Key)
			assert.Len(t, listing.Entries, 1)
		})
	}
}

func TestListUnknownShapeIsTransportError(t *testing.T) {
	srv, c := newPair(t)
	srv.RespondRaw(model.TableOwn.ListPath(), `{"rows":[]}`)

	_, err := c.List(context.Background(), model.TableOwn)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransportBadShape))
}

func TestListHTTPFailure(t *testing.T) {
	srv, c := newPair(t)
	srv.Fail(model.TableShared.ListPath(), http.StatusBadGateway)

	_, err := c.List(context.Background(), model.TableShared)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransportFetchFailed))
}

func TestRequestsCarryIDAndCookie(t *testing.T) {
	srv, c := newPair(t, testserver.WithSession("s3cret"))
	_, err := c.List(context.Background(), model.TableOwn)
	require.NoError(t, err)
	_, err = c.List(context.Background(), model.TableOwn)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
}

func TestWrongSessionIsRejected(t *testing.T) {
	srv := testserver.New(testserver.WithSession("right"))
	defer srv.Close()
	c, err := New(Credentials{BaseURL: srv.URL, CookieValue: "wrong"})
	require.NoError(t, err)

	_, err = c.List(context.Background(), model.TableOwn)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransportFetchFailed))

	require.NoError(t, c.SetCredentials(Credentials{BaseURL: srv.URL, CookieValue: "right"}))
	_, err = c.List(context.Background(), model.TableOwn)
	assert.NoError(t, err)
}

func TestLoadAll(t *testing.T) {
	srv, c := newPair(t)
	srv.AddOwn("alice", "", secretA)
	srv.AddShared("carol", "Corp", secretB, "carol@example.com")

	tables, err := c.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables[model.TableOwn], 1)
	require.Len(t, tables[model.TableShared], 1)
	assert.Equal(t, "carol@example.com", tables[model.TableShared][0].Owner)
}

func TestLoadAllFailsWhenAnyTableFails(t *testing.T) {
	srv, c := newPair(t)
	srv.Fail(model.TableShared.ListPath(), http.StatusInternalServerError)
	_, err := c.LoadAll(context.Background())
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	srv, c := newPair(t)
	id := srv.AddOwn("alice", "", secretA)

	flash, err := c.Rename(context.Background(), model.EntryID(itoa(id)), "alice2")
	require.NoError(t, err)
	assert.Equal(t, "success", flash.Category)
	assert.Equal(t, "alice2", srv.Own()[0].Account)
}

func TestRenameRejectionCarriesServerMessage(t *testing.T) {
	_, c := newPair(t)
	_, err := c.Rename(context.Background(), "404", "x")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindServer, apperrors.KindOf(err))
	assert.Equal(t, "Item not found", apperrors.GetMessage(err))
}

func TestShareAndUnshare(t *testing.T) {
	srv, c := newPair(t)
	id := model.EntryID(itoa(srv.AddOwn("alice", "", secretA)))
	ctx := context.Background()

	_, err := c.Share(ctx, []model.EntryID{id}, "bob@example.com")
	require.NoError(t, err)
	_, err = c.Share(ctx, []model.EntryID{id}, "eve@example.com")
	require.NoError(t, err)

	emails, err := c.SharedUsers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com", "eve@example.com"}, emails)

	remaining, err := c.Unshare(ctx, id, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"eve@example.com"}, remaining)

	remaining, err = c.Unshare(ctx, id, "eve@example.com")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestUnshareResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*testserver.Server)
		want    []string
		unknown bool
	}{
		{"redirect", func(s *testserver.Server) { s.Fail(PathUnshare, http.StatusSeeOther) }, nil, true},
		{"flash only", func(s *testserver.Server) { s.RespondRaw(PathUnshare, `{"flash":{"message":"ok"}}`) }, nil, true},
		{"empty body", func(s *testserver.Server) { s.RespondRaw(PathUnshare, ``) }, nil, true},
		{"explicit empty", func(s *testserver.Server) { s.RespondRaw(PathUnshare, `{"emails":[]}`) }, []string{}, false},
		{"remaining", func(s *testserver.Server) { s.RespondRaw(PathUnshare, `{"emails":["eve@example.com"]}`) }, []string{"eve@example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := newPair(t)
			tt.setup(srv)
			emails, err := c.Unshare(context.Background(), "1", "bob@example.com")
			require.NoError(t, err)
			if tt.unknown {
				assert.Nil(t, emails)
				return
			}
			require.NotNil(t, emails)
			assert.Equal(t, tt.want, emails)
		})
	}
}

func TestUnshareMalformedBody(t *testing.T) {
	srv, c := newPair(t)
	srv.RespondRaw(PathUnshare, `{"emails":"bob"}`)
	_, err := c.Unshare(context.Background(), "1", "bob@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransportBadShape))
}

func TestShareInvalidEmailUsesMessageField(t *testing.T) {
	srv, c := newPair(t)
	id := model.EntryID(itoa(srv.AddOwn("alice", "", secretA)))
	_, err := c.Share(context.Background(), []model.EntryID{id}, "nope")
	require.Error(t, err)
	assert.Equal(t, "A valid email is required.", apperrors.GetMessage(err))
}

func TestExportReturnsDecodablePNG(t *testing.T) {
	srv, c := newPair(t)
	a := model.EntryID(itoa(srv.AddOwn("alice", "", secretA)))
	b := model.EntryID(itoa(srv.AddOwn("bob", "", secretB)))

	data, err := c.Export(context.Background(), []model.EntryID{a, b})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	text, ok := qr.Decode(img)
	require.True(t, ok)
	assert.Contains(t, text, "otpauth-migration://")

	reqs := srv.Requests()
	assert.Equal(t, "1,2", reqs[len(reqs)-1].Form["ids"])
}

func TestExportNothingSelected(t *testing.T) {
	_, c := newPair(t)
	_, err := c.Export(context.Background(), []model.EntryID{"99"})
	require.Error(t, err)
	assert.Equal(t, "No items selected to export.", apperrors.GetMessage(err))
}

func TestImportForwardsVerbatim(t *testing.T) {
	srv, c := newPair(t)
	uri := "otpauth-migration://offline?data=CjEKCkhlbGxvId6tvu8SBGFsaWNlGgdFeGFtcGxlIAEoATACEAEYASAA"
	_, err := c.Import(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, []string{uri}, srv.Imports())
}

func TestCreateAndDelete(t *testing.T) {
	srv, c := newPair(t)
	ctx := context.Background()

	_, err := c.Create(ctx, "dave", "Example", secretA)
	require.NoError(t, err)
	own := srv.Own()
	require.Len(t, own, 1)
	assert.Equal(t, "dave", own[0].Account)

	_, err = c.Delete(ctx, []model.EntryID{model.EntryID(itoa(own[0].ID))})
	require.NoError(t, err)
	assert.Empty(t, srv.Own())
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Credentials{BaseURL: "not a url"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationInvalidInput))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		shape   Shape
		n       int
		wantErr bool
	}{
		{"bare array", `[{"id":1,"code":"123456"}]`, ShapeArray, 1, false},
		{"string ids", `[{"id":"a","code":"1"},{"id":"b","code":"2"}]`, ShapeArray, 2, false},
		{"empty array", `[]`, ShapeArray, 0, false},
		{"items", `{"items":[{"id":1,"code":"1"}]}`, ShapeEnvelope, 1, false},
		{"results", `{"meta":{},"results":[]}`, ShapeEnvelope, 0, false},
		{"unknown key", `{"rows":[]}`, 0, 0, true},
		{"envelope not array", `{"data":{"id":1}}`, 0, 0, true},
		{"scalar", `42`, 0, 0, true},
		{"empty", ``, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.CodeTransportBadShape))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shape, got.Shape)
			assert.Len(t, got.Entries, tt.n)
		})
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"flash":{"message":"Nope","category":"error"}}`, "Nope"},
		{`{"detail":"Item not found"}`, "Item not found"},
		{`{"detail":[{"loc":["body"]}],"message":"fallback"}`, "fallback"},
		{`{"message":"plain"}`, "plain"},
		{`<html>`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractMessage([]byte(tt.body)), tt.body)
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
