// Package compose stamps participant overlays onto template documents.
//
// Each card is built from a template and up to two overlay pages: an
// identity overlay for page 1 (wrapped name, country flag and label) and a
// code overlay for page 2. Overlays are rendered as throwaway single-page
// documents the size of the template's first page, then stamped over the
// imported template pages. Pages past the second are copied unchanged.
package compose

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/youruser/idcardapp/internal/util"
)

// Capabilities selects which overlays are drawn.
type Capabilities struct {
	Name bool
	Flag bool
	Code bool
}

// AllCapabilities enables every overlay.
func AllCapabilities() Capabilities {
	return Capabilities{Name: true, Flag: true, Code: true}
}

// Fonts configures overlay text. An empty or unusable Path falls back to
// the built-in font.
type Fonts struct {
	Path      string
	NameSize  float64
	LabelSize float64
}

type Options struct {
	Capabilities Capabilities
	Fonts        Fonts
	TextColor    color.NRGBA
	Layout       Layout
	FlagsDir     string
	TempDir      string
	// Deterministic pins document dates and sorts the catalog. Imported
	// objects keep their map order, so bytes can still differ between runs.
	Deterministic bool
}

// DefaultOptions returns options with every overlay on and the default layout.
func DefaultOptions() Options {
	return Options{
		Capabilities: AllCapabilities(),
		Fonts:        Fonts{NameSize: 20, LabelSize: 10},
		TextColor:    color.NRGBA{A: 0xff},
		Layout:       DefaultLayout(),
		FlagsDir:     "flags",
	}
}

// Card is one composition request.
type Card struct {
	Owner     string // participant id, used to name temporary files
	Template  string
	CodeImage string // empty skips the code overlay
	Output    string
	Name      string
	Country   string
}

// Result describes a written card.
type Result struct {
	Output   string
	Pages    int
	Warnings []string
}

// Compositor is safe for concurrent use; each Compose call owns its
// documents and temporary files.
type Compositor struct {
	opts     Options
	fontData []byte
}

// New prepares a compositor. A configured font that cannot be read or parsed
// is reported once and replaced by the built-in font.
func New(opts Options) *Compositor {
	c := &Compositor{opts: opts}
	if opts.Fonts.Path == "" {
		return c
	}
	b, err := os.ReadFile(opts.Fonts.Path)
	if err != nil {
		log.Printf("warning: font %s not found, using %s", opts.Fonts.Path, builtinFont)
		return c
	}
	probe := fpdf.New("P", "pt", "A4", "")
	perr := guard(opts.Fonts.Path, func() { probe.AddUTF8FontFromBytes(customFamily, "", b) })
	if perr != nil || probe.Err() {
		log.Printf("warning: font %s unusable, using %s", opts.Fonts.Path, builtinFont)
		return c
	}
	c.fontData = b
	return c
}

// Compose writes card.Output: the template with the identity overlay merged
// onto page 1 and the code overlay onto page 2. A template with a single page
// only receives the identity overlay. The output file is replaced in one step
// after the whole document is assembled.
func (c *Compositor) Compose(card Card) (res Result, err error) {
	res.Output = card.Output

	out := fpdf.New("P", "pt", "A4", "")
	if c.opts.Deterministic {
		epoch := time.Unix(0, 0).UTC()
		out.SetCatalogSort(true)
		out.SetCreationDate(epoch)
		out.SetModificationDate(epoch)
	}
	imp := gofpdi.NewImporter()

	sizes, firstTpl, err := pageSizes(imp, out, card.Template)
	if err != nil {
		return res, err
	}
	res.Pages = len(sizes)
	page := sizes[0]

	// overlays[i] is stamped onto page i+1
	overlays := make([]string, len(sizes))
	defer func() {
		for _, p := range overlays {
			if p == "" {
				continue
			}
			if rerr := util.RemoveQuietly(p); rerr != nil {
				log.Printf("warning: remove overlay %s: %v", p, rerr)
			}
		}
	}()

	plan, warnings := c.planIdentity(card)
	res.Warnings = warnings
	if !plan.empty() {
		overlays[0] = util.TempPath(c.opts.TempDir, "overlay", card.Owner, ".pdf")
		rerr := guard("identity overlay", func() { err = c.renderIdentity(overlays[0], page, plan) })
		if rerr != nil {
			return res, rerr
		}
		if err != nil {
			return res, fmt.Errorf("render identity overlay: %w", err)
		}
	}
	if c.opts.Capabilities.Code && card.CodeImage != "" && len(sizes) > 1 {
		overlays[1] = util.TempPath(c.opts.TempDir, "overlay", card.Owner, ".pdf")
		rerr := guard("code overlay", func() { err = c.renderCode(overlays[1], page, card.CodeImage) })
		if rerr != nil {
			return res, rerr
		}
		if err != nil {
			return res, fmt.Errorf("render code overlay: %w", err)
		}
	}

	err = guard(card.Template, func() {
		for i, size := range sizes {
			out.AddPageFormat("P", fpdf.SizeType{Wd: size.W, Ht: size.H})
			tpl := firstTpl
			if i > 0 {
				tpl = imp.ImportPage(out, card.Template, i+1, mediaBox)
			}
			imp.UseImportedTemplate(out, tpl, 0, 0, size.W, size.H)
			if overlays[i] != "" {
				otpl := imp.ImportPage(out, overlays[i], 1, mediaBox)
				imp.UseImportedTemplate(out, otpl, 0, 0, page.W, page.H)
			}
		}
	})
	if err != nil {
		return res, err
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return res, fmt.Errorf("assemble %s: %w", card.Output, err)
	}
	if err := util.WriteFileAtomic(card.Output, buf.Bytes()); err != nil {
		return res, fmt.Errorf("write %s: %w", card.Output, err)
	}
	return res, nil
}
