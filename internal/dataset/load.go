package dataset

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/zeebo/xxh3"

	pcsv "catalogetl/internal/parser/csv"
)

// LoadOptions configures Load.
type LoadOptions struct {
	CSV pcsv.Options
}

// Load reads a delimited file with a header row. Empty cells become null and
// each column's type is inferred from its non-null cells: int when all parse
// as base-10 integers, float when all parse as floats, string otherwise. A
// column with no non-null cells is a string column.
//
// The whole file is read into memory. Missing or malformed files yield an
// *IOError.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return decode(path, raw, opt)
}

// Read is Load for an already opened source. name labels errors and the
// dataset's provenance.
func Read(name string, r io.Reader, opt LoadOptions) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Path: name, Err: err}
	}
	return decode(name, raw, opt)
}

func decode(path string, raw []byte, opt LoadOptions) (*Dataset, error) {
	tbl, err := pcsv.NewParser(opt.CSV).Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	cols := make([]Column, len(tbl.Header))
	for c, name := range tbl.Header {
		cells := make([]string, len(tbl.Rows))
		for r, row := range tbl.Rows {
			cells[r] = row[c]
		}
		cols[c] = inferColumn(name, cells)
	}
	d, err := New(cols...)
	if err != nil {
		// Duplicate or empty header names.
		return nil, &IOError{Path: path, Err: err}
	}
	d.source = Source{Path: path, Fingerprint: xxh3.Hash(raw), Bytes: len(raw)}
	return d, nil
}

func inferColumn(name string, cells []string) Column {
	typ := TypeInt
	nonNull := 0
	for _, s := range cells {
		if s == "" {
			continue
		}
		nonNull++
		if typ == TypeInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			typ = TypeFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			typ = TypeString
			break
		}
	}
	if nonNull == 0 {
		typ = TypeString
	}

	vs := make([]Value, len(cells))
	for r, s := range cells {
		if s == "" {
			continue
		}
		switch typ {
		case TypeInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			vs[r] = Int(n)
		case TypeFloat:
			f, _ := strconv.ParseFloat(s, 64)
			vs[r] = Float(f)
		default:
			vs[r] = Str(s)
		}
	}
	return Column{Name: name, Type: typ, Values: vs}
}
