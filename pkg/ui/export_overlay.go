package ui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/qr"
)

// exportOverlay shows an exported migration image as a terminal QR code.
// The server's PNG is decoded back to its payload and re-rendered with
// half-block characters so a phone can scan it off the screen.
type exportOverlay struct {
	ids     []model.EntryID
	png     []byte
	payload string
	art     string
	err     error
	saved   string
}

func newExportOverlay(ids []model.EntryID, png []byte) *exportOverlay {
	o := &exportOverlay{ids: ids, png: png}

	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		o.err = fmt.Errorf("decoding export image: %w", err)
		return o
	}
	text, ok := qr.Decode(img)
	if !ok {
		o.err = fmt.Errorf("export image holds no readable code")
		return o
	}
	o.payload = text

	code, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		o.err = fmt.Errorf("rendering export code: %w", err)
		return o
	}
	code.DisableBorder = false
	o.art = code.ToSmallString(false)
	return o
}

// Fits reports whether the rendered code fits in the given area.
func (o *exportOverlay) Fits(width, height int) bool {
	if o.art == "" {
		return true
	}
	lines := strings.Split(strings.TrimRight(o.art, "\n"), "\n")
	if len(lines)+4 > height {
		return false
	}
	for _, l := range lines {
		if len([]rune(l))+4 > width {
			return false
		}
	}
	return true
}

func (o *exportOverlay) View(t Theme, width, height int) string {
	var sb strings.Builder
	sb.WriteString(t.Prompt.Render(fmt.Sprintf("Export of %d code(s)", len(o.ids))))
	sb.WriteString("\n\n")

	switch {
	case o.err != nil:
		sb.WriteString(t.CodeError.Render(o.err.Error()))
		sb.WriteString("\n")
	case !o.Fits(width, height):
		sb.WriteString(t.MutedText.Render("Terminal too small to show the code; enlarge it or press s to save the image."))
		sb.WriteString("\n")
	default:
		sb.WriteString(o.art)
	}

	if o.saved != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Toast[ToastSuccess].Render("Saved to " + o.saved))
	}
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render("s save PNG • esc close"))
	return t.Overlay.Render(sb.String())
}
