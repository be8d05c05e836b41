// Package client talks to the TOTP management server.
//
// List reads are never given a timeout; the caller's context is the only
// way to abandon one. Every request carries a fresh X-Request-ID and the
// configured session cookie. Credentials can be swapped at runtime when the
// config file changes.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/debug"
	"github.com/vanderheijden86/otpdeck/pkg/logging"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// Endpoint paths.
const (
	PathUpdate      = "/totp/update"
	PathExport      = "/totp/export"
	PathImport      = "/totp/import"
	PathCreate      = "/totp/create"
	PathDelete      = "/totp/delete"
	PathShare       = "/totp/share"
	PathUnshare     = "/totp/unshare"
	PathSharedUsers = "/totp/shared-users/"
)

// maxBody bounds response bodies read into memory.
const maxBody = 16 << 20

// Credentials identify the server and the session.
type Credentials struct {
	BaseURL     string
	CookieName  string
	CookieValue string
}

// Flash is a server-supplied notice.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// Client is safe for concurrent use.
type Client struct {
	mu    sync.RWMutex
	base  *url.URL
	creds Credentials

	http *http.Client
	log  logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for creds.
func New(creds Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		http: &http.Client{
			// Mutations answer with a redirect back to the list page; the
			// redirect itself is the success signal.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.SetCredentials(creds); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCredentials swaps the base URL and session cookie.
func (c *Client) SetCredentials(creds Credentials) error {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return apperrors.Invalid(apperrors.CodeValidationInvalidInput,
			fmt.Sprintf("invalid server URL %q", creds.BaseURL))
	}
	if creds.CookieName == "" {
		creds.CookieName = "session"
	}
	c.mu.Lock()
	c.base = base
	c.creds = creds
	c.mu.Unlock()
	return nil
}

// Credentials returns the active credentials.
func (c *Client) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 400 }

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*response, error) {
	c.mu.RLock()
	target := c.base.JoinPath(path)
	creds := c.creds
	c.mu.RUnlock()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if creds.CookieValue != "" {
		req.AddCookie(&http.Cookie{Name: creds.CookieName, Value: creds.CookieValue})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "request done", "method", method, "path", path, "request_id", reqID, "status", resp.StatusCode)
	debug.Log("client: %s %s -> %d (%d bytes, id=%s)", method, path, resp.StatusCode, len(data), reqID)
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// List fetches one table.
func (c *Client) List(ctx context.Context, table model.Table) ([]model.TotpEntry, error) {
	listing, err := c.ListShape(ctx, table)
	return listing.Entries, err
}

// ListShape fetches one table and reports the response shape.
func (c *Client) ListShape(ctx context.Context, table model.Table) (Listing, error) {
	timer := metrics.FetchOwn
	if table == model.TableShared {
		timer = metrics.FetchShared
	}
	defer metrics.Timer(timer)()

	path := table.ListPath()
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		metrics.FetchFailures.Inc()
		return Listing{}, apperrors.FetchFailed(path, err)
	}
	if resp.status < 200 || resp.status >= 300 {
		metrics.FetchFailures.Inc()
		return Listing{}, apperrors.FetchFailed(path, fmt.Errorf("HTTP %d: %s", resp.status, extractMessage(resp.body)))
	}
	listing, err := Normalize(resp.body)
	if err != nil {
		metrics.FetchFailures.Inc()
		c.log.Warn(ctx, "unrecognized list response", "path", path, "err", err)
		return Listing{}, err
	}
	return listing, nil
}

// Tables holds one listing per table.
type Tables map[model.Table][]model.TotpEntry

// LoadAll fetches every table concurrently. The first failure cancels the
// others.
func (c *Client) LoadAll(ctx context.Context) (Tables, error) {
	tables := model.Tables()
	results := make([][]model.TotpEntry, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			entries, err := c.List(gctx, t)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Tables, len(tables))
	for i, t := range tables {
		out[t] = results[i]
	}
	return out, nil
}

// SharedUsers lists the emails an own entry is shared with.
func (c *Client) SharedUsers(ctx context.Context, id model.EntryID) ([]string, error) {
	path := PathSharedUsers + url.PathEscape(id.String())
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, apperrors.FetchFailed(path, err)
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, apperrors.ServerRejected(extractMessage(resp.body), resp.status)
	}
	return decodeEmails(resp.status, resp.body)
}

// Unshare revokes email's access to id and returns the remaining emails.
// The result is nil when the server did not report them, for example when
// it answered with a redirect; callers refresh through SharedUsers then.
func (c *Client) Unshare(ctx context.Context, id model.EntryID, email string) ([]string, error) {
	resp, err := c.mutate(ctx, PathUnshare, url.Values{
		"totp_id": {id.String()},
		"email":   {email},
	})
	if err != nil {
		return nil, err
	}
	return decodeEmails(resp.status, resp.body)
}

// Rename sets the account label of id.
func (c *Client) Rename(ctx context.Context, id model.EntryID, account string) (Flash, error) {
	resp, err := c.mutate(ctx, PathUpdate, url.Values{
		"totp_id": {id.String()},
		"account": {account},
	})
	if err != nil {
		return Flash{}, err
	}
	return decodeFlash(resp.body), nil
}

// Export returns the PNG migration image for ids.
func (c *Client) Export(ctx context.Context, ids []model.EntryID) ([]byte, error) {
	resp, err := c.mutate(ctx, PathExport, url.Values{"ids": {model.JoinIDs(ids)}})
	if err != nil {
		return nil, err
	}
	mt, _, _ := mime.ParseMediaType(resp.header.Get("Content-Type"))
	if !strings.HasPrefix(mt, "image/") {
		return nil, apperrors.ServerRejected(extractMessage(resp.body), resp.status)
	}
	return resp.body, nil
}

// Import forwards a migration URI verbatim.
func (c *Client) Import(ctx context.Context, uri string) (Flash, error) {
	resp, err := c.mutate(ctx, PathImport, url.Values{"uri": {uri}})
	if err != nil {
		return Flash{}, err
	}
	return decodeFlash(resp.body), nil
}

// Create stores a single secret.
func (c *Client) Create(ctx context.Context, account, issuer, secret string) (Flash, error) {
	resp, err := c.mutate(ctx, PathCreate, url.Values{
		"account": {account},
		"issuer":  {issuer},
		"secret":  {secret},
	})
	if err != nil {
		return Flash{}, err
	}
	return decodeFlash(resp.body), nil
}

// Delete removes own entries.
func (c *Client) Delete(ctx context.Context, ids []model.EntryID) (Flash, error) {
	resp, err := c.mutate(ctx, PathDelete, url.Values{"ids": {model.JoinIDs(ids)}})
	if err != nil {
		return Flash{}, err
	}
	return decodeFlash(resp.body), nil
}

// Share grants email access to ids.
func (c *Client) Share(ctx context.Context, ids []model.EntryID, email string) (Flash, error) {
	resp, err := c.mutate(ctx, PathShare, url.Values{
		"ids":   {model.JoinIDs(ids)},
		"email": {email},
	})
	if err != nil {
		return Flash{}, err
	}
	return decodeFlash(resp.body), nil
}

// mutate posts form to path. A transport failure is a transport error; a
// non-success status is a server rejection carrying the server's message.
func (c *Client) mutate(ctx context.Context, path string, form url.Values) (*response, error) {
	resp, err := c.do(ctx, http.MethodPost, path, form)
	if err != nil {
		c.log.Warn(ctx, "mutation failed", "path", path, "err", err)
		return nil, apperrors.FetchFailed(path, err)
	}
	if !resp.ok() {
		msg := extractMessage(resp.body)
		c.log.Info(ctx, "mutation rejected", "path", path, "status", resp.status, "message", msg)
		return nil, apperrors.ServerRejected(msg, resp.status)
	}
	return resp, nil
}

type messageBody struct {
	Flash   *Flash          `json:"flash"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Emails  *[]string       `json:"emails"`
}

// extractMessage pulls a human message out of an error body, trying
// flash.message, then detail, then message.
func extractMessage(body []byte) string {
	var mb messageBody
	if err := json.Unmarshal(body, &mb); err != nil {
		return ""
	}
	if mb.Flash != nil && mb.Flash.Message != "" {
		return mb.Flash.Message
	}
	if len(mb.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(mb.Detail, &detail); err == nil && detail != "" {
			return detail
		}
	}
	return mb.Message
}

func decodeFlash(body []byte) Flash {
	var mb messageBody
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &mb) != nil || mb.Flash == nil {
		return Flash{}
	}
	return *mb.Flash
}

// decodeEmails returns the emails list of a response. A nil result means
// the list is unknown: redirects, empty bodies, and bodies without an
// "emails" key. An explicit empty array yields a non-nil empty slice.
func decodeEmails(status int, body []byte) ([]string, error) {
	if status >= 300 || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var mb messageBody
	if err := json.Unmarshal(body, &mb); err != nil {
		return nil, badShape("malformed emails", err)
	}
	if mb.Emails == nil {
		return nil, nil
	}
	if *mb.Emails == nil {
		return []string{}, nil
	}
	return *mb.Emails, nil
}
