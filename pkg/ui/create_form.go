package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/otpdeck/pkg/otpuri"
)

// createForm collects a single secret. Field values live behind a pointer
// so the bound huh inputs survive Model copies.
type createForm struct {
	form    *huh.Form
	account string
	issuer  string
	secret  string
}

// newCreateForm builds the form, pre-filled from a decoded payload when p
// is non-nil.
func newCreateForm(p *otpuri.Payload, width int) *createForm {
	f := &createForm{}
	if p != nil {
		f.account = p.Account
		f.issuer = p.Issuer
		f.secret = p.Secret
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account").
				Description("Name shown in the table (max 32 characters)").
				CharLimit(otpuri.MaxAccountLength).
				Value(&f.account).
				Validate(otpuri.ValidateAccount),
			huh.NewInput().
				Title("Issuer").
				Description("Optional, e.g. GitHub").
				Value(&f.issuer),
			huh.NewInput().
				Title("Secret").
				Description("Base32 secret; spaces are ignored").
				EchoMode(huh.EchoModePassword).
				Value(&f.secret).
				Validate(func(s string) error {
					return otpuri.ValidateSecret(otpuri.SanitizeSecret(s))
				}),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)

	if width > 0 {
		f.form = f.form.WithWidth(min(width-4, 60))
	}
	return f
}

func (f *createForm) Init() tea.Cmd { return f.form.Init() }

// Update forwards msg to the form.
func (f *createForm) Update(msg tea.Msg) tea.Cmd {
	m, cmd := f.form.Update(msg)
	if form, ok := m.(*huh.Form); ok {
		f.form = form
	}
	return cmd
}

func (f *createForm) Completed() bool { return f.form.State == huh.StateCompleted }
func (f *createForm) Aborted() bool   { return f.form.State == huh.StateAborted }

// Values returns the trimmed fields with the secret sanitized.
func (f *createForm) Values() (account, issuer, secret string) {
	return strings.TrimSpace(f.account), strings.TrimSpace(f.issuer), otpuri.SanitizeSecret(f.secret)
}

func (f *createForm) View() string { return f.form.View() }
