// Package batch turns a roster into identification cards, one row at a time.
package batch

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/idcardapp/internal/compose"
	"github.com/youruser/idcardapp/internal/config"
	imagepkg "github.com/youruser/idcardapp/internal/image"
	"github.com/youruser/idcardapp/internal/locator"
	"github.com/youruser/idcardapp/internal/roster"
	"github.com/youruser/idcardapp/internal/util"
)

// Composer builds one card document.
type Composer interface {
	Compose(card compose.Card) (compose.Result, error)
}

// Driver processes roster rows. Rows are independent: a failed row is
// reported and skipped without affecting the others.
type Driver struct {
	Locator   locator.Locator
	Composer  Composer
	Style     imagepkg.Style
	OutputDir string
	TempDir   string
	Workers   int
}

// Outcome is the result of one row.
type Outcome struct {
	Row      roster.Row
	Output   string
	Warnings []string
	Err      error
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Generated int
	Skipped   int
}

// OutputPath names the card of p inside dir.
func OutputPath(dir string, p roster.Participant) string {
	return filepath.Join(dir, util.SafeName(p.ID)+"_"+util.SafeName(p.Name)+".pdf")
}

// ProcessRow builds the card for one row. The code image lives only for the
// duration of the call.
func (d *Driver) ProcessRow(row roster.Row) Outcome {
	o := Outcome{Row: row}
	if row.Err != nil {
		o.Err = row.Err
		return o
	}
	p := row.Participant
	payload := imagepkg.PayloadFor(p)

	tpl, err := d.Locator.Locate(p)
	if err != nil {
		o.Err = err
		return o
	}

	code := util.TempPath(d.TempDir, "code", p.ID, ".png")
	defer func() {
		if err := util.RemoveQuietly(code); err != nil {
			log.Printf("warning: remove code image %s: %v", code, err)
		}
	}()
	if err := imagepkg.WriteCodeImage(payload, d.Style, code); err != nil {
		o.Err = err
		return o
	}

	res, err := d.Composer.Compose(compose.Card{
		Owner:     p.ID,
		Template:  tpl,
		CodeImage: code,
		Output:    OutputPath(d.OutputDir, p),
		Name:      p.Name,
		Country:   p.Country,
	})
	o.Warnings = res.Warnings
	if err != nil {
		o.Err = err
		return o
	}
	o.Output = res.Output
	return o
}

// Process runs every row and writes one report line per row to out, in input
// order, whatever the number of workers. Rows not yet started when ctx is
// cancelled are left out of the report and the summary.
func (d *Driver) Process(ctx context.Context, rows []roster.Row, out io.Writer) Summary {
	workers := d.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(rows))
	started := make([]bool, len(rows))
	done := make([]chan struct{}, len(rows))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i := range rows {
			if ctx.Err() != nil {
				close(done[i])
				continue
			}
			i := i
			g.Go(func() error {
				defer close(done[i])
				// g.Go may have waited on a busy worker.
				if ctx.Err() != nil {
					return nil
				}
				started[i] = true
				outcomes[i] = d.ProcessRow(rows[i])
				return nil
			})
		}
	}()

	var sum Summary
	for i := range rows {
		<-done[i]
		if !started[i] {
			continue
		}
		report(out, outcomes[i])
		if outcomes[i].Err != nil {
			sum.Skipped++
		} else {
			sum.Generated++
		}
	}
	g.Wait()
	return sum
}

func report(out io.Writer, o Outcome) {
	p := o.Row.Participant
	for _, w := range o.Warnings {
		fmt.Fprintf(out, "warning %s: %s\n", p.ID, w)
	}
	switch {
	case o.Err == nil:
		fmt.Fprintf(out, "generated %s\n", o.Output)
	case p.ID == "":
		fmt.Fprintf(out, "skipped line %d: %v\n", o.Row.Line, o.Err)
	default:
		fmt.Fprintf(out, "skipped %s (%s): %v\n", p.ID, p.Name, o.Err)
	}
}

// NewDriver wires a driver from cfg. It fails on configuration-fatal
// problems such as a missing fixed template.
func NewDriver(cfg config.Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := locator.New(cfg.Template.Mode, cfg.Template.Value)
	if err != nil {
		return nil, err
	}
	if err := loc.Check(); err != nil {
		return nil, err
	}
	if err := util.EnsureDir(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if cfg.TempDir != "" {
		if err := util.EnsureDir(cfg.TempDir); err != nil {
			return nil, fmt.Errorf("create temp directory: %w", err)
		}
	}
	return &Driver{
		Locator:   loc,
		Composer:  compose.New(cfg.ComposeOptions()),
		Style:     cfg.CodeStyle(),
		OutputDir: cfg.OutputDir,
		TempDir:   cfg.TempDir,
		Workers:   cfg.Workers,
	}, nil
}

// Run executes a whole batch. It returns an error only when the run cannot
// start (bad configuration, unreadable roster) or ctx is cancelled; skipped
// rows are reported on out.
func Run(ctx context.Context, cfg config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	d, err := NewDriver(cfg)
	if err != nil {
		return err
	}
	rows, err := roster.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}
	rows = roster.Filter(rows, roster.FilterOptions{IDs: cfg.Only})

	sum := d.Process(ctx, rows, out)
	if _, err := fmt.Fprintf(out, "done: %d generated, %d skipped\n", sum.Generated, sum.Skipped); err != nil {
		return err
	}
	return ctx.Err()
}
