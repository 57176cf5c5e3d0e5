package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrAssetNotFound is returned when no flag file exists for a country.
var ErrAssetNotFound = errors.New("asset not found")

var flagExtensions = []string{".png", ".jpg", ".jpeg"}

// FindFlag returns the flag file for country under dir. The country is tried
// as given, lowercased and uppercased.
func FindFlag(dir, country string) (string, error) {
	country = strings.TrimSpace(country)
	if dir == "" || country == "" || strings.ContainsAny(country, `/\`) {
		return "", fmt.Errorf("%w: flag for %q", ErrAssetNotFound, country)
	}
	for _, name := range []string{country, strings.ToLower(country), strings.ToUpper(country)} {
		for _, ext := range flagExtensions {
			p := filepath.Join(dir, name+ext)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: flag for %q in %s", ErrAssetNotFound, country, dir)
}

// LoadImage decodes an image file, honoring EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return img, nil
}
