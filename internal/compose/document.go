package compose

import (
	"errors"
	"fmt"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// ErrTemplateRead is returned when a template (or an overlay) cannot be parsed.
var ErrTemplateRead = errors.New("cannot read document")

const mediaBox = "/MediaBox"

// Size is a page size in page units.
type Size struct {
	W, H float64
}

// guard runs fn and turns a panic from the page importer into an error; the
// importer reports malformed input by panicking.
func guard(what string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTemplateRead, what, r)
		}
	}()
	fn()
	return nil
}

// pageSizes imports page 1 of path into pdf and returns the size of every
// page, in order. The returned template id is page 1's.
func pageSizes(imp *gofpdi.Importer, pdf *fpdf.Fpdf, path string) ([]Size, int, error) {
	if st, err := os.Stat(path); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrTemplateRead, err)
	} else if st.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrTemplateRead, path)
	}

	var first int
	var boxes map[int]map[string]map[string]float64
	err := guard(path, func() {
		first = imp.ImportPage(pdf, path, 1, mediaBox)
		boxes = imp.GetPageSizes()
	})
	if err != nil {
		return nil, 0, err
	}
	if len(boxes) == 0 {
		return nil, 0, fmt.Errorf("%w: %s has no pages", ErrTemplateRead, path)
	}

	sizes := make([]Size, len(boxes))
	for i := range sizes {
		box, ok := boxes[i+1][mediaBox]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s page %d has no media box", ErrTemplateRead, path, i+1)
		}
		sizes[i] = Size{W: box["w"], H: box["h"]}
	}
	return sizes, first, nil
}

// Inspect returns the page sizes of the document at path.
func Inspect(path string) ([]Size, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	sizes, _, err := pageSizes(gofpdi.NewImporter(), pdf, path)
	return sizes, err
}
