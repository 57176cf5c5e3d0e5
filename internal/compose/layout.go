package compose

import (
	"strings"
	"unicode/utf8"
)

// Rect is a box in page units with a bottom-left origin, as PDF places it.
type Rect struct {
	X, Y, W, H float64
}

// Layout holds the fixed placement of overlay content. All values are page
// units; vertical positions are measured from the page bottom.
type Layout struct {
	NameBaseline    float64 // fraction of page height for the first name line
	NameLineSpacing float64 // multiple of the name font size
	NameWidthRatio  float64 // fraction of page width available to a name line

	FlagW, FlagH float64
	FlagMargin   float64 // from the right and bottom page edges
	LabelGap     float64 // from the label baseline to the flag's lower edge

	CodeSize   float64
	CodeOffset float64 // from the page bottom to the code's lower edge
}

// DefaultLayout matches the printed card artwork.
func DefaultLayout() Layout {
	return Layout{
		NameBaseline:    0.55,
		NameLineSpacing: 1.25,
		NameWidthRatio:  0.5,
		FlagW:           60,
		FlagH:           40,
		FlagMargin:      36,
		LabelGap:        14,
		CodeSize:        120,
		CodeOffset:      120,
	}
}

// MaxNameWidth is the widest a single name line may render.
func (l Layout) MaxNameWidth(pageW float64) float64 {
	return pageW * l.NameWidthRatio
}

// CodeRect places the code centered horizontally.
func (l Layout) CodeRect(pageW float64) Rect {
	return Rect{X: (pageW - l.CodeSize) / 2, Y: l.CodeOffset, W: l.CodeSize, H: l.CodeSize}
}

// FlagRect anchors the flag to the bottom-right margin, leaving room for the
// label underneath.
func (l Layout) FlagRect(pageW float64) Rect {
	return Rect{
		X: pageW - l.FlagMargin - l.FlagW,
		Y: l.FlagMargin + l.LabelGap,
		W: l.FlagW,
		H: l.FlagH,
	}
}

// LabelOrigin returns the baseline start of a label of width w centered
// beneath the flag.
func (l Layout) LabelOrigin(pageW, w float64) (x, y float64) {
	f := l.FlagRect(pageW)
	return f.X + (f.W-w)/2, l.FlagMargin
}

// NameBaselines returns the baseline of each of n lines, top to bottom.
func (l Layout) NameBaselines(pageH, fontSize float64, n int) []float64 {
	out := make([]float64, n)
	y := pageH * l.NameBaseline
	for i := range out {
		out[i] = y
		y -= fontSize * l.NameLineSpacing
	}
	return out
}

// WrapText breaks text into lines no wider than maxWidth using greedy
// line filling. A word that is wider than maxWidth on its own is split
// between characters.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if measure(candidate) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if measure(word) <= maxWidth {
			line = word
			continue
		}
		parts := splitWord(word, maxWidth, measure)
		lines = append(lines, parts[:len(parts)-1]...)
		line = parts[len(parts)-1]
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func splitWord(word string, maxWidth float64, measure func(string) float64) []string {
	var parts []string
	cur := ""
	for len(word) > 0 {
		r, size := utf8.DecodeRuneInString(word)
		next := cur + string(r)
		if cur != "" && measure(next) > maxWidth {
			parts = append(parts, cur)
			next = string(r)
		}
		cur = next
		word = word[size:]
	}
	return append(parts, cur)
}
