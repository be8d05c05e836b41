package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// sharedUsersModal lists who an own entry is shared with and lets the user
// revoke access.
type sharedUsersModal struct {
	id      model.EntryID
	label   string
	emails  []string
	cursor  int
	loading bool
	busy    bool
	err     string
}

func newSharedUsersModal(id model.EntryID, label string) *sharedUsersModal {
	return &sharedUsersModal{id: id, label: label, loading: true}
}

func (s *sharedUsersModal) SetEmails(emails []string) {
	s.emails = emails
	s.loading = false
	s.busy = false
	if s.cursor >= len(s.emails) {
		s.cursor = max(len(s.emails)-1, 0)
	}
}

func (s *sharedUsersModal) Selected() (string, bool) {
	if s.cursor < 0 || s.cursor >= len(s.emails) {
		return "", false
	}
	return s.emails[s.cursor], true
}

func (s *sharedUsersModal) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *sharedUsersModal) MoveDown() {
	if s.cursor < len(s.emails)-1 {
		s.cursor++
	}
}

func (s *sharedUsersModal) View(t Theme, width int) string {
	var sb strings.Builder
	sb.WriteString(t.Prompt.Render("Shared users: " + truncate(s.label, max(width-20, 10))))
	sb.WriteString("\n\n")

	switch {
	case s.loading:
		sb.WriteString(t.MutedText.Render("Loading…"))
	case len(s.emails) == 0:
		sb.WriteString(t.MutedText.Render("Not shared with anyone."))
	default:
		for i, e := range s.emails {
			line := "  " + e
			if i == s.cursor {
				line = t.Selected.Render("› " + e)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	if s.err != "" {
		sb.WriteString("\n")
		sb.WriteString(t.CodeError.Render(s.err))
	}
	sb.WriteString("\n")
	hint := "x unshare • esc close"
	if s.busy {
		hint = "Updating…"
	}
	sb.WriteString(t.MutedText.Render(fmt.Sprintf("%d user(s) • %s", len(s.emails), hint)))
	return t.Overlay.Render(sb.String())
}
