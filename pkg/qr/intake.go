package qr

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	// Formats beyond the standard library's.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
)

// MaxImageBytes caps uploaded or pasted images.
const MaxImageBytes = 5 * 1024 * 1024

// MaxImagePixels caps decoded image area; compressed formats can expand far
// beyond their byte size.
const MaxImagePixels = 40_000_000

// LoadImage checks MIME type and size, then decodes the image. size is the
// caller's claimed size (-1 when unknown); the reader is capped regardless.
func LoadImage(r io.Reader, mimeType string, size int64) (image.Image, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return nil, apperrors.Invalid(apperrors.CodeValidationNotImage,
			"Unsupported file type, please upload an image.")
	}
	if size > MaxImageBytes {
		return nil, tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, tooLarge()
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeNoCode, "No QR code found in the image.", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, apperrors.Invalid(apperrors.CodeValidationImageTooLarge,
			fmt.Sprintf("Image is too large (%dx%d pixels).", cfg.Width, cfg.Height))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// An unreadable image has no code in it.
		return nil, apperrors.Wrap(apperrors.CodeDecodeNoCode, "No QR code found in the image.", err)
	}
	return img, nil
}

// DecodeImage runs LoadImage and Decode, reporting "no code" as an error.
func DecodeImage(r io.Reader, mimeType string, size int64) (string, error) {
	img, err := LoadImage(r, mimeType, size)
	if err != nil {
		return "", err
	}
	text, ok := Decode(img)
	if !ok {
		return "", apperrors.NoCodeFound()
	}
	return text, nil
}

// DetectMIME sniffs the first bytes of a file and falls back to the file
// extension for formats the sniffer does not know (TIFF, for one).
func DetectMIME(name string, head []byte) string {
	sniffed := http.DetectContentType(head)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return sniffed
}

func tooLarge() error {
	return apperrors.Invalid(apperrors.CodeValidationImageTooLarge,
		"File is too large. Maximum size is 5MB.")
}
