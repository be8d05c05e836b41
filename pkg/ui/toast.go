package ui

import (
	"time"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
)

// ToastLevel is the category of a transient notice.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// toastTTL is how long a notice stays in the footer.
const toastTTL = 4 * time.Second

// Toast is a transient footer notice.
type Toast struct {
	Text    string
	Level   ToastLevel
	Expires time.Time
}

// Active reports whether the toast should still be shown at now.
func (t Toast) Active(now time.Time) bool {
	return t.Text != "" && now.Before(t.Expires)
}

func newToast(text string, level ToastLevel, now time.Time) Toast {
	return Toast{Text: text, Level: level, Expires: now.Add(toastTTL)}
}

// levelFromCategory maps a server flash category to a toast level.
func levelFromCategory(category string) ToastLevel {
	switch category {
	case "success":
		return ToastSuccess
	case "warning":
		return ToastWarning
	case "error", "danger":
		return ToastError
	default:
		return ToastInfo
	}
}

// levelForError picks the notice level of err by its kind. Local
// rejections are warnings; everything else is an error.
func levelForError(err error) ToastLevel {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindDecode:
		return ToastWarning
	default:
		return ToastError
	}
}
