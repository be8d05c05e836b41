// Package qr turns images into decoded QR payloads.
//
// The decoder contract is deliberately narrow: a pixel buffer goes in, and
// either non-empty text or "not found" comes out. Malformed input never
// produces an error or a panic, it is simply "not found".
package qr

import (
	"image"
	"time"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"github.com/vanderheijden86/otpdeck/pkg/debug"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
)

var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// DecodePixels decodes a row-major RGBA buffer (4 bytes per pixel).
func DecodePixels(pix []byte, width, height int) (string, bool) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return "", false
	}
	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return Decode(img)
}

// Decode scans img for a QR code.
func Decode(img image.Image) (text string, ok bool) {
	if img == nil || img.Bounds().Empty() {
		return "", false
	}
	defer metrics.Timer(metrics.QRDecode)()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			debug.Log("qr: decoder panic on %v image: %v", img.Bounds(), r)
			text, ok = "", false
		}
		debug.LogTiming("qr.Decode", time.Since(start))
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, decodeHints)
	if err != nil || result == nil {
		return "", false
	}
	text = result.GetText()
	if text == "" {
		return "", false
	}
	return text, true
}
