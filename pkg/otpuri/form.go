package otpuri

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
)

// MaxAccountLength is the longest account name the server accepts.
const MaxAccountLength = 32

var base32Secret = regexp.MustCompile(`(?i)^[A-Z2-7]{16,64}={0,6}$`)

// SanitizeSecret removes all whitespace, the way secrets are usually shown
// in groups of four.
func SanitizeSecret(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ValidateAccount checks the account (name) field of the create form.
func ValidateAccount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxAccountLength {
		return apperrors.Invalid(apperrors.CodeValidationInvalidInput,
			"Name is required and must be 32 characters or less.")
	}
	return nil
}

// ValidateSecret checks that s is a plausible Base32 TOTP secret.
func ValidateSecret(s string) error {
	if !base32Secret.MatchString(SanitizeSecret(s)) {
		return apperrors.Invalid(apperrors.CodeValidationInvalidInput,
			"Secret must be a valid Base32 string.")
	}
	return nil
}
