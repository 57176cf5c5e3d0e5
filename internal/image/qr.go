package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrPayloadTooLarge is returned when the payload does not fit the largest
// code version at the configured recovery level.
var ErrPayloadTooLarge = errors.New("payload exceeds code capacity")

// maxPayloadBytes is the byte-mode capacity of a version 40 code at medium
// recovery. Payloads are JSON, so they always land in byte mode.
const maxPayloadBytes = 2331

// transparentBelow is the per-channel cutoff under which a pixel counts as
// black when clearing the background.
const transparentBelow = 10

// Style controls how a code is rasterized.
type Style struct {
	Foreground  color.Color
	Background  color.Color
	Transparent bool
	ModuleSize  int // pixels per module
	Border      int // quiet zone, in modules
}

// DefaultStyle renders white modules on a cleared background, for printing
// over dark card artwork.
func DefaultStyle() Style {
	return Style{
		Foreground:  color.White,
		Background:  color.Black,
		Transparent: true,
		ModuleSize:  10,
		Border:      2,
	}
}

// GenerateQRImage rasterizes text at medium recovery, picking the smallest
// version that holds it.
func GenerateQRImage(text string, style Style) (*image.NRGBA, error) {
	if len(text) > maxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(text))
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		if strings.Contains(err.Error(), "too long") {
			return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(text))
		}
		return nil, err
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	mod := style.ModuleSize
	if mod <= 0 {
		mod = 1
	}
	border := style.Border
	if border < 0 {
		border = 0
	}
	var fgColor, bgColor color.Color = color.Black, color.White
	if style.Foreground != nil {
		fgColor = style.Foreground
	}
	if style.Background != nil {
		bgColor = style.Background
	}

	n := len(bitmap)
	side := (n + 2*border) * mod
	img := imaging.New(side, side, bgColor)
	fg := color.NRGBAModel.Convert(fgColor).(color.NRGBA)

	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + border) * mod
			y0 := (y + border) * mod
			for dy := 0; dy < mod; dy++ {
				for dx := 0; dx < mod; dx++ {
					img.SetNRGBA(x0+dx, y0+dy, fg)
				}
			}
		}
	}

	if style.Transparent {
		ClearDarkPixels(img)
	}
	return img, nil
}

// ClearDarkPixels makes every pixel whose channels are all below the
// threshold fully transparent. Anti-aliased edges above it are left alone.
func ClearDarkPixels(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.R < transparentBelow && c.G < transparentBelow && c.B < transparentBelow {
				img.SetNRGBA(x, y, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0})
			}
		}
	}
}

// GenerateQRPNG returns PNG bytes of the styled code for text.
func GenerateQRPNG(text string, style Style) ([]byte, error) {
	img, err := GenerateQRImage(text, style)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// WriteCodeImage encodes payload and writes the code PNG to path.
func WriteCodeImage(payload Payload, style Style, path string) error {
	text, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	b, err := GenerateQRPNG(text, style)
	if err != nil {
		return fmt.Errorf("generate code for %s: %w", payload.ParticipantID, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write code image: %w", err)
	}
	return nil
}
