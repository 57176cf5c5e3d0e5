// Package locator resolves the template document for a participant.
package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/youruser/idcardapp/internal/roster"
)

// Template source modes.
const (
	ModeDirectory = "directory"
	ModeFixed     = "fixed"
	ModePattern   = "pattern"
)

// TemplateExt is the document extension templates must carry.
const TemplateExt = ".pdf"

var (
	// ErrTemplateNotFound means no template matched a participant. The row is skipped.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrAmbiguousTemplate means more than one template matched. The row is skipped.
	ErrAmbiguousTemplate = errors.New("ambiguous template")
	// ErrFixedTemplateMissing means the shared template is absent; the whole run stops.
	ErrFixedTemplateMissing = errors.New("fixed template missing")
	// ErrUnknownMode is returned by New for an unrecognized mode.
	ErrUnknownMode = errors.New("unknown template mode")
)

// Locator finds the template for one participant.
type Locator interface {
	// Check validates the source once before a batch starts.
	Check() error
	Locate(p roster.Participant) (string, error)
}

// New builds the locator for mode. value is a directory, a file path or a
// path pattern depending on the mode.
func New(mode, value string) (Locator, error) {
	switch mode {
	case ModeDirectory:
		return &DirectoryLocator{Dir: value}, nil
	case ModeFixed:
		return &FixedLocator{Path: value}, nil
	case ModePattern:
		return &PatternLocator{Pattern: value}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Normalize trims, case folds and strips all whitespace from s.
func Normalize(s string) string {
	// Caser is stateful; one per call.
	s = cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// DirectoryLocator matches the participant name against file names in Dir.
type DirectoryLocator struct {
	Dir string
}

func (l *DirectoryLocator) Check() error {
	st, err := os.Stat(l.Dir)
	if err != nil {
		return fmt.Errorf("template directory: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("template directory: %s is not a directory", l.Dir)
	}
	return nil
}

// Locate returns the single template whose normalized file name contains the
// normalized participant name. Candidates are considered in lexicographic order.
func (l *DirectoryLocator) Locate(p roster.Participant) (string, error) {
	query := Normalize(p.Name)
	if query == "" {
		return "", fmt.Errorf("%w: empty name", ErrTemplateNotFound)
	}
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return "", fmt.Errorf("list templates: %w", err)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), TemplateExt) {
			continue
		}
		if strings.Contains(Normalize(e.Name()), query) {
			matches = append(matches, e.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q in %s", ErrTemplateNotFound, p.Name, l.Dir)
	case 1:
		return filepath.Join(l.Dir, matches[0]), nil
	default:
		return "", fmt.Errorf("%w: %q matches %s", ErrAmbiguousTemplate, p.Name, strings.Join(matches, ", "))
	}
}

// FixedLocator hands out one shared template.
type FixedLocator struct {
	Path string
}

func (l *FixedLocator) Check() error {
	st, err := os.Stat(l.Path)
	if err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", ErrFixedTemplateMissing, l.Path)
	}
	return nil
}

func (l *FixedLocator) Locate(roster.Participant) (string, error) {
	return l.Path, nil
}

// PatternLocator builds the template path from a pattern with {first},
// {name} and {id} placeholders, e.g. "id_cards/ID card_{first}.pdf".
type PatternLocator struct {
	Pattern string
}

func (l *PatternLocator) Check() error {
	if !strings.Contains(l.Pattern, "{") {
		return fmt.Errorf("template pattern %q has no placeholder", l.Pattern)
	}
	return nil
}

func (l *PatternLocator) Locate(p roster.Participant) (string, error) {
	first := ""
	if fields := strings.Fields(p.Name); len(fields) > 0 {
		first = strings.ToLower(fields[0])
	}
	path := strings.NewReplacer(
		"{first}", first,
		"{name}", p.Name,
		"{id}", p.ID,
	).Replace(l.Pattern)

	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	return path, nil
}
