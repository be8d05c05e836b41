package testutil

import (
	"os"
	"path/filepath"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPNG encodes content as a 256px PNG QR code.
func QRPNG(t testing.TB, content string) []byte {
	t.Helper()
	data, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		t.Fatalf("encoding QR fixture: %v", err)
	}
	return data
}

// WriteQRFile writes a QR PNG of content to dir/name and returns its path.
func WriteQRFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, QRPNG(t, content), 0o600); err != nil {
		t.Fatalf("writing QR fixture: %v", err)
	}
	return path
}

// MigrationURI builds a migration payload URI with opaque data.
func MigrationURI(data string) string {
	return "otpauth-migration://offline?data=" + data
}

// SingleURI builds a single-secret otpauth URI.
func SingleURI(issuer, account, secret string) string {
	return "otpauth://totp/" + issuer + ":" + account + "?secret=" + secret + "&issuer=" + issuer
}
