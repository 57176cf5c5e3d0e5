package compose

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var streamRE = regexp.MustCompile(`(?s)>>\s*stream\r?\n(.*?)\r?\nendstream`)

// inflateStreams returns every stream body in doc, inflated when it is
// flate encoded, sorted so object order does not matter.
func inflateStreams(doc []byte) []string {
	var out []string
	for _, m := range streamRE.FindAllSubmatch(doc, -1) {
		body := m[1]
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			if b, err := io.ReadAll(zr); err == nil {
				body = b
			}
			zr.Close()
		}
		out = append(out, string(body))
	}
	sort.Strings(out)
	return out
}

// pageStreams re-imports each page of path into a document of its own, so
// only the objects that page reaches are written, and returns their decoded
// streams per page.
func pageStreams(t *testing.T, path string) [][]string {
	t.Helper()
	sizes, err := Inspect(path)
	require.NoError(t, err)

	pages := make([][]string, len(sizes))
	for i, s := range sizes {
		pdf := fpdf.New("P", "pt", "A4", "")
		pdf.SetCompression(false)
		imp := gofpdi.NewImporter()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: s.W, Ht: s.H})
		tpl := imp.ImportPage(pdf, path, i+1, mediaBox)
		imp.UseImportedTemplate(pdf, tpl, 0, 0, s.W, s.H)

		var buf bytes.Buffer
		require.NoError(t, pdf.Output(&buf))
		pages[i] = inflateStreams(buf.Bytes())
	}
	return pages
}

func pageText(t *testing.T, path string) []string {
	t.Helper()
	var out []string
	for _, streams := range pageStreams(t, path) {
		out = append(out, strings.Join(streams, "\n"))
	}
	return out
}

const codeDraw = "q 120.00000 0 0 120.00000 237.50000 120.00000 cm /I"

func TestComposeOverlaysLandOnTheirPages(t *testing.T) {
	f := newFixture(t, a4, a4, a4)

	res, err := New(f.opts).Compose(f.card("US"))
	require.NoError(t, err)

	pages := pageText(t, res.Output)
	require.Len(t, pages, 3)

	assert.Contains(t, pages[0], "(template page 1) Tj")
	assert.Contains(t, pages[0], "463.10 Td (Jane Doe) Tj", "name baseline at 0.55 of the page height")
	assert.Contains(t, pages[0], " cm /I", "flag image")
	assert.NotContains(t, pages[0], codeDraw)

	assert.Contains(t, pages[1], "(template page 2) Tj")
	assert.Contains(t, pages[1], codeDraw)
	assert.NotContains(t, pages[1], "Jane Doe")

	assert.Contains(t, pages[2], "(template page 3) Tj")
	assert.NotContains(t, pages[2], "Jane Doe")
	assert.NotContains(t, pages[2], " cm /I")
}

func TestComposeCodeOverlayDisabled(t *testing.T) {
	f := newFixture(t, a4, a4)
	f.opts.Capabilities.Code = false

	res, err := New(f.opts).Compose(f.card("US"))
	require.NoError(t, err)

	pages := pageText(t, res.Output)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "(Jane Doe) Tj")
	assert.NotContains(t, pages[1], codeDraw)
}

func TestComposeDeterministicRunsMatch(t *testing.T) {
	f := newFixture(t, a4, a4, a4)
	f.opts.Deterministic = true
	c := New(f.opts)

	first := f.card("US")
	first.Output = filepath.Join(f.dir, "first.pdf")
	second := f.card("US")
	second.Output = filepath.Join(f.dir, "second.pdf")

	_, err := c.Compose(first)
	require.NoError(t, err)
	_, err = c.Compose(second)
	require.NoError(t, err)

	assert.Equal(t, pageStreams(t, first.Output), pageStreams(t, second.Output))
	b, err := os.ReadFile(first.Output)
	require.NoError(t, err)
	assert.Contains(t, string(b), "D:19700101000000", "creation date pinned to the epoch")
}

func TestComposeMissingFlagMatchesDisabledFlag(t *testing.T) {
	f := newFixture(t, a4, a4)
	f.opts.Deterministic = true

	missing := f.card("ZZ")
	missing.Output = filepath.Join(f.dir, "missing.pdf")
	res, err := New(f.opts).Compose(missing)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)

	noFlag := f.opts
	noFlag.Capabilities.Flag = false
	disabled := f.card("ZZ")
	disabled.Output = filepath.Join(f.dir, "disabled.pdf")
	res, err = New(noFlag).Compose(disabled)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, pageStreams(t, disabled.Output), pageStreams(t, missing.Output))
}
