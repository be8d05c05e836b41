// Package model defines the data shared between the HTTP client, the sync
// engine and the terminal UI.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrorCode is the sentinel the server (or a degraded fetch) puts in place
// of a code that could not be computed.
const ErrorCode = "Error"

// EntryID identifies a TOTP entry. The server emits numeric ids; string ids
// are accepted too and both decode to the same textual form.
type EntryID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *EntryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("entry id: empty value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("entry id: %w", err)
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

// String returns the id as sent in form payloads.
func (id EntryID) String() string { return string(id) }

// JoinIDs renders ids as the comma-separated list the bulk endpoints take.
func JoinIDs(ids []EntryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

// TotpEntry is the server-reported state of one code.
type TotpEntry struct {
	ID      EntryID `json:"id"`
	Code    string  `json:"code"`
	Account string  `json:"account,omitempty"`
	Issuer  string  `json:"issuer,omitempty"`
	Owner   string  `json:"owner,omitempty"`
	Shared  bool    `json:"shared,omitempty"`
}

// IsError reports whether the entry carries the error sentinel.
func (e TotpEntry) IsError() bool {
	return e.Code == ErrorCode
}

// Label returns "Issuer: Account", or whichever half is present.
func (e TotpEntry) Label() string {
	switch {
	case e.Issuer != "" && e.Account != "":
		return e.Issuer + ": " + e.Account
	case e.Account != "":
		return e.Account
	default:
		return e.Issuer
	}
}

// Table is one of the two logical code tables.
type Table int

const (
	TableOwn    Table = iota // the user's own codes
	TableShared              // codes other users shared with the user
	numTables
)

// Tables lists every table in display order.
func Tables() []Table {
	return []Table{TableOwn, TableShared}
}

// String returns the tab title.
func (t Table) String() string {
	switch t {
	case TableOwn:
		return "My codes"
	case TableShared:
		return "Shared with me"
	default:
		return "Table(" + strconv.Itoa(int(t)) + ")"
	}
}

// ListPath is the read endpoint for the table.
func (t Table) ListPath() string {
	if t == TableShared {
		return "/totp/list-shared-with-me"
	}
	return "/totp/list-all"
}

// Valid reports whether t names a known table.
func (t Table) Valid() bool {
	return t >= TableOwn && t < numTables
}

// ParseTable maps a config/flag value to a Table.
func ParseTable(s string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "own", "mine", "my":
		return TableOwn, nil
	case "shared", "shared-with-me":
		return TableShared, nil
	default:
		return TableOwn, fmt.Errorf("unknown table %q (want own or shared)", s)
	}
}
