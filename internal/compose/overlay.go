package compose

import (
	"bytes"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	imagepkg "github.com/youruser/idcardapp/internal/image"
)

const (
	customFamily = "CardFont"
	builtinFont  = "Helvetica"
	flagImage    = "flag"

	// flag rasters are prepared at this many pixels per page unit
	flagPixelScale = 4
)

var pngOptions = fpdf.ImageOptions{ImageType: "PNG"}

// face draws text with either the configured TrueType font or the built-in
// font, which needs UTF-8 translated to its code page.
type face struct {
	pdf       *fpdf.Fpdf
	family    string
	translate func(string) string
}

func (c *Compositor) newFace(pdf *fpdf.Fpdf) face {
	if c.fontData != nil {
		pdf.AddUTF8FontFromBytes(customFamily, "", c.fontData)
		if !pdf.Err() {
			return face{pdf: pdf, family: customFamily, translate: func(s string) string { return s }}
		}
		pdf.ClearError()
	}
	return face{pdf: pdf, family: builtinFont, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (f face) use(size float64) { f.pdf.SetFont(f.family, "", size) }

func (f face) width(s string) float64 { return f.pdf.GetStringWidth(f.translate(s)) }

// text draws s with its baseline at y, measured from the page bottom.
func (f face) text(x, y float64, s string) {
	_, h := f.pdf.GetPageSize()
	f.pdf.Text(x, h-y, f.translate(s))
}

// placeImage places a registered image into r, which uses a bottom-left origin.
func placeImage(pdf *fpdf.Fpdf, name string, r Rect) {
	_, h := pdf.GetPageSize()
	pdf.ImageOptions(name, r.X, h-r.Y-r.H, r.W, r.H, false, pngOptions, 0, "")
}

func newOverlay(page Size) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.W, Ht: page.H},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return pdf
}

// identityPlan is what goes on the identity page overlay.
type identityPlan struct {
	Name  string
	Flag  []byte // PNG, nil when the flag is omitted
	Label string
}

func (p identityPlan) empty() bool {
	return p.Name == "" && p.Flag == nil
}

// planIdentity decides the identity page content. A missing or unreadable
// flag only produces a warning.
func (c *Compositor) planIdentity(card Card) (identityPlan, []string) {
	var plan identityPlan
	var warnings []string
	if c.opts.Capabilities.Name {
		plan.Name = strings.Join(strings.Fields(card.Name), " ")
	}
	if !c.opts.Capabilities.Flag || strings.TrimSpace(card.Country) == "" {
		return plan, warnings
	}

	path, err := imagepkg.FindFlag(c.opts.FlagsDir, card.Country)
	if err != nil {
		return plan, append(warnings, fmt.Sprintf("flag for %q not found, omitting flag", card.Country))
	}
	img, err := imagepkg.LoadImage(path)
	if err != nil {
		return plan, append(warnings, fmt.Sprintf("flag for %q unreadable (%v), omitting flag", card.Country, err))
	}
	l := c.opts.Layout
	flag := imagepkg.ComposeFlagImage(img, int(l.FlagW)*flagPixelScale, int(l.FlagH)*flagPixelScale)
	b, err := imagepkg.EncodePNG(flag)
	if err != nil {
		return plan, append(warnings, fmt.Sprintf("flag for %q could not be encoded (%v), omitting flag", card.Country, err))
	}
	plan.Flag = b
	plan.Label = strings.TrimSpace(card.Country)
	return plan, warnings
}

// renderIdentity writes the single-page identity overlay to path.
func (c *Compositor) renderIdentity(path string, page Size, plan identityPlan) error {
	pdf := newOverlay(page)
	f := c.newFace(pdf)
	tc := c.opts.TextColor
	pdf.SetTextColor(int(tc.R), int(tc.G), int(tc.B))
	l := c.opts.Layout

	if plan.Name != "" {
		f.use(c.opts.Fonts.NameSize)
		lines := WrapText(plan.Name, l.MaxNameWidth(page.W), f.width)
		baselines := l.NameBaselines(page.H, c.opts.Fonts.NameSize, len(lines))
		for i, line := range lines {
			f.text((page.W-f.width(line))/2, baselines[i], line)
		}
	}

	if plan.Flag != nil {
		pdf.RegisterImageOptionsReader(flagImage, pngOptions, bytes.NewReader(plan.Flag))
		placeImage(pdf, flagImage, l.FlagRect(page.W))
		if plan.Label != "" {
			f.use(c.opts.Fonts.LabelSize)
			x, y := l.LabelOrigin(page.W, f.width(plan.Label))
			f.text(x, y, plan.Label)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderCode writes the single-page code overlay to path.
func (c *Compositor) renderCode(path string, page Size, codeImage string) error {
	pdf := newOverlay(page)
	placeImage(pdf, codeImage, c.opts.Layout.CodeRect(page.W))
	return pdf.OutputFileAndClose(path)
}
