package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// fieldCount is the fixed column layout: id, email, name, country.
const fieldCount = 4

// ErrMalformedRow is returned for rows that do not have exactly four fields.
var ErrMalformedRow = errors.New("malformed row")

// LoadRoster reads every data line of the roster at path. There is no header
// row. Blank lines are ignored. Malformed rows are returned with Err set so the
// caller can report and skip them; only an unreadable file fails the call.
func LoadRoster(path string) ([]Row, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer fp.Close()

	rows, err := ReadRoster(fp)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	return rows, nil
}

// ReadRoster parses roster rows from r.
func ReadRoster(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var out []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && !errors.Is(perr.Err, csv.ErrFieldCount) {
				// quoting errors are local to one line; keep going
				out = append(out, Row{Line: perr.StartLine, Err: fmt.Errorf("%w: %v", ErrMalformedRow, perr.Err)})
				continue
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		out = append(out, parseRecord(line, rec))
	}
	return out, nil
}

func parseRecord(line int, rec []string) Row {
	if len(rec) != fieldCount {
		return Row{
			Line: line,
			Err:  fmt.Errorf("%w: line %d has %d fields, want %d", ErrMalformedRow, line, len(rec), fieldCount),
		}
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	p := Participant{
		ID:      rec[0],
		Email:   rec[1],
		Name:    rec[2],
		Country: rec[3],
	}
	if p.ID == "" || p.Name == "" {
		return Row{Line: line, Participant: p, Err: fmt.Errorf("%w: line %d is missing id or name", ErrMalformedRow, line)}
	}
	return Row{Line: line, Participant: p}
}
