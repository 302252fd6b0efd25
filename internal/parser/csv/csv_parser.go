// Package csv reads delimited text with a header row into raw string cells.
// It is the only place that touches the file format; typing and null
// handling happen in the dataset package.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical names. Headers not in
	// the map are kept as written (after BOM stripping and trimming).
	HeaderMap map[string]string
}

// Table is the raw parse result: header names and body rows, each row exactly
// len(Header) wide.
type Table struct {
	Header []string
	Rows   [][]string
}

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the whole input. Unlike a streaming loader it is strict: a row
// that fails to parse or whose width differs from the header aborts the read
// with an error naming the line.
func (p *Parser) Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is checked against the header below so the error names the line.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	t := &Table{Header: normalizeHeaders(StripHeaderBOM(h), p.opt)}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError already carries the line number.
			return nil, err
		}
		if len(row) != len(t.Header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: incorrect number of fields (expected %d, got %d)", line, len(t.Header), len(row))
		}
		if p.opt.TrimSpace {
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// normalizeHeaders trims whitespace and applies HeaderMap. Casing is left
// alone; sources are lowercased explicitly by the caller when needed.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		res[i] = c
	}
	return res
}
