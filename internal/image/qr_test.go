package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/idcardapp/internal/roster"
)

func decodeCode(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

func printStyle() Style {
	return Style{Foreground: color.Black, Background: color.White, ModuleSize: 10, Border: 2}
}

func TestPayloadEncode(t *testing.T) {
	p := PayloadFor(roster.Participant{ID: "P001", Email: "a@x.com", Name: "Jane Doe", Country: "US"})
	text, err := p.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"participantId":"P001","name":"Jane Doe","email":"a@x.com"}`, text)
}

func TestPayloadEncodeKeepsSpecialCharacters(t *testing.T) {
	text, err := Payload{ParticipantID: "P<1>", Name: "Tom & Jerry", Email: "t@x.com"}.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"participantId":"P<1>","name":"Tom & Jerry","email":"t@x.com"}`, text)
}

func TestCodeRoundTrip(t *testing.T) {
	want := Payload{ParticipantID: "P001", Name: "Jane Doe", Email: "a@x.com"}
	text, err := want.Encode()
	require.NoError(t, err)

	img, err := GenerateQRImage(text, printStyle())
	require.NoError(t, err)

	got, err := DecodePayload(decodeCode(t, img))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCodeRoundTripTransparentStyle(t *testing.T) {
	want := Payload{ParticipantID: "P042", Name: "Zoe Anders", Email: "zoe@example.org"}
	text, err := want.Encode()
	require.NoError(t, err)

	img, err := GenerateQRImage(text, DefaultStyle())
	require.NoError(t, err)

	// flatten onto a dark card, then invert so modules read dark-on-light
	b := img.Bounds()
	card := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.Black), img, image.Pt(0, 0), 1.0)
	got, err := DecodePayload(decodeCode(t, imaging.Invert(card)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGenerateQRImageGeometry(t *testing.T) {
	img, err := GenerateQRImage("hi", printStyle())
	require.NoError(t, err)
	// version 1 is 21 modules, plus a 2-module quiet zone on each side
	assert.Equal(t, (21+4)*10, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.NRGBAAt(0, 0))
	// top-left finder pattern starts right after the quiet zone
	assert.Equal(t, color.NRGBA{A: 0xff}, img.NRGBAAt(20, 20))
}

func TestGenerateQRImageFitsLargerPayloads(t *testing.T) {
	small, err := GenerateQRImage("a", printStyle())
	require.NoError(t, err)
	large, err := GenerateQRImage(strings.Repeat("participant", 20), printStyle())
	require.NoError(t, err)
	assert.Greater(t, large.Bounds().Dx(), small.Bounds().Dx())
}

func TestGenerateQRImageTooLarge(t *testing.T) {
	_, err := GenerateQRImage(strings.Repeat("x", 3000), printStyle())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestGenerateQRImageCapacityBoundary(t *testing.T) {
	img, err := GenerateQRImage(strings.Repeat("x", maxPayloadBytes), Style{ModuleSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 177, img.Bounds().Dx(), "version 40 is 177 modules wide")

	_, err = GenerateQRImage(strings.Repeat("x", maxPayloadBytes+1), Style{ModuleSize: 1})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Contains(t, err.Error(), "2332 bytes")
}

func TestGenerateQRPNGDecodes(t *testing.T) {
	b, err := GenerateQRPNG("hi", printStyle())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	want, err := GenerateQRImage("hi", printStyle())
	require.NoError(t, err)
	assert.Equal(t, want.Bounds(), img.Bounds())
}

func TestTransparentBackground(t *testing.T) {
	img, err := GenerateQRImage("hi", DefaultStyle())
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A, "quiet zone is cleared")
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.NRGBAAt(20, 20), "modules stay opaque")
}

func TestClearDarkPixelsThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 9, B: 9, A: 0xff})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 0, B: 0, A: 0xff})
	img.SetNRGBA(2, 0, color.NRGBA{R: 120, G: 120, B: 120, A: 0xff})

	ClearDarkPixels(img)

	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0xff), img.NRGBAAt(1, 0).A)
	assert.Equal(t, uint8(0xff), img.NRGBAAt(2, 0).A)
}

func TestWriteCodeImageIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	p := Payload{ParticipantID: "P001", Name: "Jane Doe", Email: "a@x.com"}
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	require.NoError(t, WriteCodeImage(p, DefaultStyle(), a))
	require.NoError(t, WriteCodeImage(p, DefaultStyle(), b))

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(ab, bb))

	_, err = png.Decode(bytes.NewReader(ab))
	assert.NoError(t, err)
}
