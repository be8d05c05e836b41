// Package otpuri validates payloads decoded from QR codes before they are
// handed to the import or create flows.
//
// Two policies exist. Single-secret mode accepts otpauth://totp/ URIs and
// extracts the secret and label. Migration mode accepts any string with the
// otpauth-migration:// prefix and treats the rest as opaque cargo for the
// server.
package otpuri

import (
	"net/url"
	"strings"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
)

// MigrationPrefix is the literal prefix of bulk export payloads.
const MigrationPrefix = "otpauth-migration://"

// Mode selects the validation policy.
type Mode int

const (
	ModeSingle    Mode = iota // otpauth://totp/<label>?secret=...
	ModeMigration             // otpauth-migration://...
)

func (m Mode) String() string {
	if m == ModeMigration {
		return "migration"
	}
	return "single"
}

// Payload is a validated QR payload.
type Payload struct {
	Mode Mode
	URI  string // the input, verbatim

	// Single-secret fields.
	Secret  string
	Label   string // percent-decoded path, may be empty
	Issuer  string
	Account string
}

// Validate applies the policy for mode to s.
func Validate(mode Mode, s string) (Payload, error) {
	if mode == ModeMigration {
		return ValidateMigration(s)
	}
	return ValidateSingle(s)
}

// ValidateSingle parses an otpauth://totp/ URI.
func ValidateSingle(s string) (Payload, error) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return Payload{}, apperrors.InvalidPayload("Invalid URL")
	}
	if !strings.EqualFold(u.Scheme, "otpauth") {
		return Payload{}, apperrors.InvalidPayload("Not an otpauth URL")
	}
	if host := u.Hostname(); !strings.EqualFold(host, "totp") {
		if host == "" {
			host = "(none)"
		}
		return Payload{}, apperrors.InvalidPayload("Unsupported OTP type: " + host)
	}

	secret := strings.TrimSpace(u.Query().Get("secret"))
	if secret == "" {
		return Payload{}, apperrors.InvalidPayload("Secret not found in QR code.")
	}

	label, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), "/"))
	if err != nil {
		return Payload{}, apperrors.InvalidPayload("Invalid label encoding")
	}

	p := Payload{
		Mode:   ModeSingle,
		URI:    s,
		Secret: secret,
		Label:  label,
	}
	p.Issuer, p.Account = splitLabel(label)
	if issuer := strings.TrimSpace(u.Query().Get("issuer")); issuer != "" {
		p.Issuer = issuer
	}
	return p, nil
}

// ValidateMigration checks the migration prefix and nothing else.
func ValidateMigration(s string) (Payload, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, MigrationPrefix) {
		return Payload{}, apperrors.InvalidPayload("Invalid QR code")
	}
	return Payload{Mode: ModeMigration, URI: s}, nil
}

// Detect picks the policy that matches s's prefix. Anything that is not a
// migration payload is validated as a single secret.
func Detect(s string) Mode {
	if strings.HasPrefix(strings.TrimSpace(s), MigrationPrefix) {
		return ModeMigration
	}
	return ModeSingle
}

// splitLabel splits "Issuer:Account" on the first colon. A label without a
// colon is all account.
func splitLabel(label string) (issuer, account string) {
	if i := strings.Index(label, ":"); i >= 0 {
		return strings.TrimSpace(label[:i]), strings.TrimSpace(label[i+1:])
	}
	return "", strings.TrimSpace(label)
}
