package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// ComposeFlagImage fits a flag into a w×h pixel box on a transparent canvas,
// keeping its aspect ratio and centering it.
func ComposeFlagImage(flag image.Image, w, h int) *image.NRGBA {
	canvas := imaging.New(w, h, color.NRGBA{})
	if flag == nil {
		return canvas
	}
	f := imaging.Fit(flag, w, h, imaging.Lanczos)
	return imaging.PasteCenter(canvas, f)
}

// EncodePNG is a small helper for handing composed rasters to the PDF layer.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
