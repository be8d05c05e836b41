// Package testserver runs an in-process TOTP server speaking the endpoints
// otpdeck talks to. Codes are real: they are generated from stored secrets
// at request time, so a test can observe rotation across period
// boundaries. Failures, response shapes and the clock are injectable.
package testserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// SessionCookie is the cookie name the server expects.
const SessionCookie = "session"

// Entry is one stored secret.
type Entry struct {
	ID         int
	Account    string
	Issuer     string
	Secret     string
	Owner      string
	SharedWith []string
}

// Request records one handled request.
type Request struct {
	Method    string
	Path      string
	RequestID string
	Form      map[string]string
	At        time.Time
}

// Server is a fake TOTP server backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	own      []*Entry
	shared   []*Entry
	nextID   int
	envelope map[string]string // list path -> envelope key, "" for bare array
	fail     map[string]int    // path -> forced status
	raw      map[string]string // path -> forced body
	session  string
	requests []Request
	imports  []string
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now for code generation.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSession requires requests to carry the session cookie with value v.
func WithSession(v string) Option {
	return func(s *Server) { s.session = v }
}

// New starts a server. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		nextID:   1,
		envelope: map[string]string{},
		fail:     map[string]int{},
		raw:      map[string]string{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record, s.auth, s.inject)
	r.HandleFunc("/totp/list-all", s.listHandler(false)).Methods("GET")
	r.HandleFunc("/totp/list-shared-with-me", s.listHandler(true)).Methods("GET")
	r.HandleFunc("/totp/shared-users/{id}", s.sharedUsersHandler).Methods("GET")
	r.HandleFunc("/totp/unshare", s.unshareHandler).Methods("POST")
	r.HandleFunc("/totp/update", s.updateHandler).Methods("POST")
	r.HandleFunc("/totp/export", s.exportHandler).Methods("POST")
	r.HandleFunc("/totp/import", s.importHandler).Methods("POST")
	r.HandleFunc("/totp/create", s.createHandler).Methods("POST")
	r.HandleFunc("/totp/delete", s.deleteHandler).Methods("POST")
	r.HandleFunc("/totp/share", s.shareHandler).Methods("POST")
	return r
}

// AddOwn stores an entry in the user's own table and returns its id.
func (s *Server) AddOwn(account, issuer, secret string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Entry{ID: s.nextID, Account: account, Issuer: issuer, Secret: secret}
	s.nextID++
	s.own = append(s.own, e)
	return e.ID
}

// AddShared stores an entry another user shared with the user.
func (s *Server) AddShared(account, issuer, secret, owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Entry{ID: s.nextID, Account: account, Issuer: issuer, Secret: secret, Owner: owner}
	s.nextID++
	s.shared = append(s.shared, e)
	return e.ID
}

// SetEnvelope wraps the list response of path under key. An empty key
// restores the bare array.
func (s *Server) SetEnvelope(path, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelope[path] = key
}

// Fail forces path to answer with status. Zero clears the failure.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, path)
		return
	}
	s.fail[path] = status
}

// RespondRaw forces path to answer 200 with body. Empty clears it.
func (s *Server) RespondRaw(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body == "" {
		delete(s.raw, path)
		return
	}
	s.raw[path] = body
}

// Requests returns every handled request in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit path.
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Imports returns the migration URIs posted to /totp/import.
func (s *Server) Imports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.imports...)
}

// Own returns a copy of the own table.
func (s *Server) Own() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.own))
	for i, e := range s.own {
		out[i] = *e
	}
	return out
}

// CodeFor returns the code the server would report for secret now.
func (s *Server) CodeFor(secret string) string {
	code, err := totp.GenerateCode(secret, s.now())
	if err != nil {
		return "Error"
	}
	return code
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			At:        time.Now(),
		}
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err == nil {
				req.Form = map[string]string{}
				for k := range r.PostForm {
					req.Form[k] = r.PostForm.Get(k)
				}
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.session != "" {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value != s.session {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, failing := s.fail[r.URL.Path]
		body, forced := s.raw[r.URL.Path]
		s.mu.Unlock()
		switch {
		case failing:
			writeJSON(w, status, map[string]any{"detail": fmt.Sprintf("injected failure %d", status)})
		case forced:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type wireEntry struct {
	ID      int    `json:"id"`
	Account string `json:"account"`
	Issuer  string `json:"issuer"`
	Code    string `json:"code"`
	Owner   string `json:"owner,omitempty"`
	Shared  bool   `json:"shared,omitempty"`
}

func (s *Server) listHandler(sharedTable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		src := s.own
		if sharedTable {
			src = s.shared
		}
		list := make([]wireEntry, 0, len(src))
		for _, e := range src {
			list = append(list, wireEntry{
				ID:      e.ID,
				Account: e.Account,
				Issuer:  e.Issuer,
				Code:    s.CodeFor(e.Secret),
				Owner:   e.Owner,
				Shared:  len(e.SharedWith) > 0,
			})
		}
		key := s.envelope[r.URL.Path]
		s.mu.Unlock()

		if key == "" {
			writeJSON(w, http.StatusOK, list)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{key: list})
	}
}

func (s *Server) findOwn(id int) *Entry {
	for _, e := range s.own {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *Server) sharedUsersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "bad id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findOwn(id)
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": append([]string{}, e.SharedWith...)})
}

func (s *Server) unshareHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PostFormValue("totp_id"))
	email := r.PostFormValue("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findOwn(id)
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Item not found"})
		return
	}
	kept := e.SharedWith[:0]
	for _, m := range e.SharedWith {
		if m != email {
			kept = append(kept, m)
		}
	}
	e.SharedWith = kept
	writeJSON(w, http.StatusOK, map[string]any{"emails": append([]string{}, kept...)})
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PostFormValue("totp_id"))
	account := strings.TrimSpace(r.PostFormValue("account"))
	if account == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"flash": flash("Account name cannot be empty.", "error")})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findOwn(id)
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Item not found"})
		return
	}
	e.Account = account
	writeJSON(w, http.StatusOK, map[string]any{"flash": flash("Account updated.", "success")})
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	ids := parseIDs(r.PostFormValue("ids"))
	s.mu.Lock()
	var secrets []string
	for _, id := range ids {
		if e := s.findOwn(id); e != nil {
			secrets = append(secrets, e.Issuer+":"+e.Account+":"+e.Secret)
		}
		for _, e := range s.shared {
			if e.ID == id {
				secrets = append(secrets, e.Issuer+":"+e.Account+":"+e.Secret)
			}
		}
	}
	s.mu.Unlock()
	if len(secrets) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"flash": flash("No items selected to export.", "error")})
		return
	}

	data := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(secrets, "\n")))
	png, err := qrcode.Encode("otpauth-migration://offline?data="+data, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="totp_export.png"`)
	_, _ = w.Write(png)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	uri := strings.TrimSpace(r.PostFormValue("uri"))
	if !strings.HasPrefix(uri, "otpauth-migration://") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"flash": flash("Invalid migration URI.", "error")})
		return
	}
	s.mu.Lock()
	s.imports = append(s.imports, uri)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"flash": flash("Imported 1 item(s).", "success")})
}

func (s *Server) createHandler(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(r.PostFormValue("account"))
	issuer := strings.TrimSpace(r.PostFormValue("issuer"))
	secret := strings.TrimSpace(r.PostFormValue("secret"))
	if account == "" || secret == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"flash": flash("Account and secret are required.", "error")})
		return
	}
	if _, err := totp.GenerateCode(secret, s.now()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"flash": flash("Invalid secret.", "error")})
		return
	}
	id := s.AddOwn(account, issuer, secret)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "flash": flash("TOTP successfully created!", "success")})
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	ids := parseIDs(r.PostFormValue("ids"))
	drop := map[int]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	kept := s.own[:0]
	removed := 0
	for _, e := range s.own {
		if drop[e.ID] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.own = kept
	s.mu.Unlock()
	if removed == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flash": flash(fmt.Sprintf("Deleted %d item(s).", removed), "success")})
}

func (s *Server) shareHandler(w http.ResponseWriter, r *http.Request) {
	ids := parseIDs(r.PostFormValue("ids"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	if !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "A valid email is required."})
		return
	}
	s.mu.Lock()
	shared := 0
	for _, id := range ids {
		if e := s.findOwn(id); e != nil {
			e.SharedWith = append(e.SharedWith, email)
			shared++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"flash": flash(fmt.Sprintf("Shared %d item(s) with %s.", shared, email), "success")})
}

func flash(message, category string) map[string]string {
	return map[string]string{"message": message, "category": category}
}

func parseIDs(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
