// Package edit is the inline account-label editor.
//
// A Session is a small state machine fed with events. Update returns the
// next session and at most one effect for the caller to perform; the
// session itself never talks to the network, so every transition can be
// exercised with a fake clock.
package edit

import (
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// SubmitInterval is the minimum spacing between accepted submits.
const SubmitInterval = 2 * time.Second

// State is the editor mode.
type State int

const (
	Display State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "display"
	}
}

// Event is an input to Update.
type Event interface{ isEvent() }

// Begin opens the editor on a row.
type Begin struct {
	ID       model.EntryID
	Original string
}

// Type inserts typed text. The first keystroke after Begin replaces the
// whole pre-filled value.
type Type struct{ Text string }

// Backspace deletes the last rune, or the whole value while it is still
// fully selected.
type Backspace struct{}

// SetValue replaces the value outright (paste, external text widget).
type SetValue struct{ Value string }

// Submit asks to save the current value.
type Submit struct{}

// Cancel abandons the edit.
type Cancel struct{}

// Saved reports a successful rename.
type Saved struct{}

// Failed reports a rejected rename.
type Failed struct{ Err error }

func (Begin) isEvent()     {}
func (Type) isEvent()      {}
func (Backspace) isEvent() {}
func (SetValue) isEvent()  {}
func (Submit) isEvent()    {}
func (Cancel) isEvent()    {}
func (Saved) isEvent()     {}
func (Failed) isEvent()    {}

// Effect is work requested by a transition. A nil Effect means none.
type Effect interface{ isEffect() }

// Invalid rejects a submit locally; nothing was sent.
type Invalid struct{ Err error }

// Throttled drops a submit that came too soon after the previous one, or
// while another rename is still in flight.
type Throttled struct{ Err error }

// Rename asks the caller to POST the new label.
type Rename struct {
	ID      model.EntryID
	Account string
}

// Apply tells the caller to show the saved label in place.
type Apply struct {
	ID      model.EntryID
	Account string
}

// Restore tells the caller to show the original label again.
type Restore struct {
	ID       model.EntryID
	Original string
}

// Rejected surfaces a server failure; the editor stays open.
type Rejected struct{ Err error }

func (Invalid) isEffect()   {}
func (Throttled) isEffect() {}
func (Rename) isEffect()    {}
func (Apply) isEffect()     {}
func (Restore) isEffect()   {}
func (Rejected) isEffect()  {}

// Session is one editor instance. Copies share the submit guard.
//
// Cancelling while Saving closes the editor but leaves the rename in
// flight; its Saved or Failed still produces Apply or Rejected.
type Session struct {
	state    State
	id       model.EntryID
	original string
	value    string
	selected bool
	pending  string
	errMsg   string
	guard    *rate.Limiter

	detachedID      model.EntryID
	detachedAccount string
}

// NewSession returns an idle editor.
func NewSession() Session {
	return Session{guard: rate.NewLimiter(rate.Every(SubmitInterval), 1)}
}

func (s Session) State() State        { return s.state }
func (s Session) ID() model.EntryID   { return s.id }
func (s Session) Original() string    { return s.original }
func (s Session) Value() string       { return s.value }
func (s Session) FullySelected() bool { return s.selected }

// Err is the last server or validation message shown in the editor.
func (s Session) Err() string { return s.errMsg }

// Update applies ev at time now.
func (s Session) Update(ev Event, now time.Time) (Session, Effect) {
	if s.guard == nil {
		s.guard = rate.NewLimiter(rate.Every(SubmitInterval), 1)
	}

	switch ev := ev.(type) {
	case Begin:
		if s.state != Display {
			return s, nil
		}
		s.state = Editing
		s.id = ev.ID
		s.original = ev.Original
		s.value = ev.Original
		s.selected = true
		s.errMsg = ""
		return s, nil

	case Type:
		if s.state != Editing {
			return s, nil
		}
		if s.selected {
			s.value = ev.Text
			s.selected = false
		} else {
			s.value += ev.Text
		}
		return s, nil

	case Backspace:
		if s.state != Editing {
			return s, nil
		}
		if s.selected {
			s.value = ""
			s.selected = false
		} else if r := []rune(s.value); len(r) > 0 {
			s.value = string(r[:len(r)-1])
		}
		return s, nil

	case SetValue:
		if s.state != Editing {
			return s, nil
		}
		s.value = ev.Value
		s.selected = false
		return s, nil

	case Submit:
		return s.submit(now)

	case Cancel:
		switch s.state {
		case Editing:
			id, original := s.id, s.original
			s = s.reset()
			return s, Restore{ID: id, Original: original}
		case Saving:
			id, original, pending := s.id, s.original, s.pending
			s = s.reset()
			s.detachedID, s.detachedAccount = id, pending
			return s, Restore{ID: id, Original: original}
		}
		return s, nil

	case Saved:
		switch {
		case s.state == Saving:
			id, account := s.id, s.pending
			s = s.reset()
			return s, Apply{ID: id, Account: account}
		case s.detachedID != "":
			id, account := s.detachedID, s.detachedAccount
			s.detachedID, s.detachedAccount = "", ""
			return s, Apply{ID: id, Account: account}
		}
		return s, nil

	case Failed:
		switch {
		case s.state == Saving:
			s.state = Editing
			s.pending = ""
			s.errMsg = apperrors.GetMessage(ev.Err)
			return s, Rejected{Err: ev.Err}
		case s.detachedID != "":
			s.detachedID, s.detachedAccount = "", ""
			return s, Rejected{Err: ev.Err}
		}
		return s, nil
	}
	return s, nil
}

// InFlight reports whether a rename is waiting for the server.
func (s Session) InFlight() bool {
	return s.state == Saving || s.detachedID != ""
}

func (s Session) submit(now time.Time) (Session, Effect) {
	if s.state != Editing && s.state != Saving {
		return s, nil
	}
	if s.InFlight() {
		metrics.ThrottledSubmits.Inc()
		return s, Throttled{Err: apperrors.Invalid(apperrors.CodeValidationThrottled,
			"A rename is already being saved.")}
	}
	account := strings.TrimSpace(s.value)
	if account == "" {
		err := apperrors.Invalid(apperrors.CodeValidationEmptyLabel, "Account name cannot be empty.")
		s.errMsg = err.Message
		return s, Invalid{Err: err}
	}
	if !s.guard.AllowN(now, 1) {
		metrics.ThrottledSubmits.Inc()
		return s, Throttled{Err: apperrors.Invalid(apperrors.CodeValidationThrottled,
			"Please wait before saving again.")}
	}
	s.state = Saving
	s.pending = account
	s.errMsg = ""
	return s, Rename{ID: s.id, Account: account}
}

// reset returns to Display, keeping the guard so a quick reopen cannot
// bypass it, and any detached rename.
func (s Session) reset() Session {
	return Session{guard: s.guard, detachedID: s.detachedID, detachedAccount: s.detachedAccount}
}
