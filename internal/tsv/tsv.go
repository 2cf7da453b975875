// Package tsv reads and writes translation maps: tab-separated files with a
// single header row followed by one id/text row per string.
package tsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/wordmap/wordmap/internal/strtable"
)

// Column headers. Extraction writes OriginalTextHeader; translation maps
// may use either.
const (
	IDHeader           = "ID"
	OriginalTextHeader = "OriginalText"
	TextHeader         = "Text"
)

var (
	// ErrMissingHeader is returned when the first row is not a known header.
	ErrMissingHeader = errors.New("tsv: missing or unknown header row")

	// ErrMalformedRow is returned for rows that do not have exactly two
	// columns or whose id is not 16 hex digits.
	ErrMalformedRow = errors.New("tsv: malformed row")
)

// Row is one id/text pair.
type Row struct {
	ID   string
	Text string
}

type readOptions struct {
	normalize *norm.Form
}

// ReadOption configures Read.
type ReadOption func(*readOptions)

// WithNormalize applies a Unicode normalization form to every text.
func WithNormalize(f norm.Form) ReadOption {
	return func(o *readOptions) {
		o.normalize = &f
	}
}

// Read parses a translation map. The header row is required. Ids are
// lowercased; a row with a bad id or the wrong number of columns fails the
// whole read with its line number.
func Read(r io.Reader, opts ...ReadOption) ([]Row, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !validHeader(header) {
		return nil, fmt.Errorf("%w: %q", ErrMissingHeader, strings.Join(header, "\t"))
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(record) != 2 {
			return nil, fmt.Errorf("%w: line %d: %d columns", ErrMalformedRow, line, len(record))
		}
		id := strings.ToLower(strings.TrimSpace(record[0]))
		if _, err := strtable.ParseID(id); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}

		text := record[1]
		if o.normalize != nil {
			text = o.normalize.String(text)
		}
		rows = append(rows, Row{ID: id, Text: text})
	}

	return rows, nil
}

func validHeader(h []string) bool {
	if len(h) != 2 {
		return false
	}
	id := strings.TrimPrefix(h[0], "\ufeff")
	return id == IDHeader && (h[1] == OriginalTextHeader || h[1] == TextHeader)
}

// Write writes a header row with the given text column name followed by rows.
func Write(w io.Writer, textHeader string, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{IDHeader, textHeader}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, r.Text}); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToMap indexes rows by id. The first row for an id wins; later ids are
// returned as duplicates in the order they appear.
func ToMap(rows []Row) (map[string]string, []string) {
	m := make(map[string]string, len(rows))
	var dups []string
	for _, r := range rows {
		if _, ok := m[r.ID]; ok {
			dups = append(dups, r.ID)
			continue
		}
		m[r.ID] = r.Text
	}
	return m, dups
}
