package testutil

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// AssertNoDuplicateIDs verifies all entry ids are unique.
func AssertNoDuplicateIDs(t *testing.T, entries []model.TotpEntry) {
	t.Helper()
	seen := make(map[model.EntryID]bool)
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate entry ID: %s", e.ID)
		}
		seen[e.ID] = true
	}
}

// AssertIDs verifies got lists exactly the wanted ids, in order.
func AssertIDs(t *testing.T, got []model.EntryID, want ...string) {
	t.Helper()
	g := make([]string, len(got))
	for i, id := range got {
		g[i] = string(id)
	}
	if strings.Join(g, ",") != strings.Join(want, ",") {
		t.Errorf("expected ids [%s], got [%s]", strings.Join(want, ","), strings.Join(g, ","))
	}
}

// AssertCodes verifies each entry carries a six-digit code or the error
// sentinel.
func AssertCodes(t *testing.T, entries []model.TotpEntry) {
	t.Helper()
	for _, e := range entries {
		if e.Code == model.ErrorCode {
			continue
		}
		if len(e.Code) != 6 || strings.Trim(e.Code, "0123456789") != "" {
			t.Errorf("entry %s: unexpected code %q", e.ID, e.Code)
		}
	}
}
