// Package dataset is the in-memory table model used by the pipeline: an
// ordered set of named, typed columns over an ordered sequence of rows.
//
// Every column has a declared Type and every row has a cell in every column;
// missing values are the explicit null Value, never an absent entry.
//
// Operations never modify their receiver. Each one returns a new *Dataset,
// which may share unchanged column storage with the receiver; since nothing
// writes into a Values slice after construction, sharing is safe and callers
// may hold on to earlier datasets across steps.
package dataset

import (
	"fmt"
	"strings"
)

// Column is a named, typed vector of cells.
type Column struct {
	Name   string
	Type   Type
	Values []Value
}

// Source describes where a dataset was loaded from. It is empty for derived
// datasets that were never read from disk.
type Source struct {
	Path        string
	Fingerprint uint64 // xxh3 of the raw file bytes
	Bytes       int
}

// Dataset is an immutable table value.
type Dataset struct {
	cols   []Column
	index  map[string]int
	rows   int
	source Source
}

// New builds a dataset from columns. All columns must have the same length,
// unique non-empty names, and cells matching their declared type.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, &SchemaError{Op: "new", Msg: fmt.Sprintf("column %d has an empty name", i)}
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, &SchemaError{Op: "new", Column: c.Name, Msg: "duplicate column"}
		}
		if i == 0 {
			d.rows = len(c.Values)
		} else if len(c.Values) != d.rows {
			return nil, &SchemaError{Op: "new", Column: c.Name,
				Msg: fmt.Sprintf("has %d rows, want %d", len(c.Values), d.rows)}
		}
		for r, v := range c.Values {
			if !v.IsNull() && v.Kind() != c.Type {
				return nil, &SchemaError{Op: "new", Column: c.Name,
					Msg: fmt.Sprintf("row %d holds %s, column is %s", r, v.Kind(), c.Type)}
			}
		}
		d.index[c.Name] = i
	}
	return d, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// StringColumn is a convenience constructor for a non-null string column.
func StringColumn(name string, vals ...string) Column {
	vs := make([]Value, len(vals))
	for i, s := range vals {
		vs[i] = Str(s)
	}
	return Column{Name: name, Type: TypeString, Values: vs}
}

// IntColumn is a convenience constructor for a non-null int column.
func IntColumn(name string, vals ...int64) Column {
	vs := make([]Value, len(vals))
	for i, n := range vals {
		vs[i] = Int(n)
	}
	return Column{Name: name, Type: TypeInt, Values: vs}
}

// derive builds a dataset from columns already known to be consistent.
func (d *Dataset) derive(cols []Column, rows int) *Dataset {
	out := &Dataset{cols: cols, index: make(map[string]int, len(cols)), rows: rows, source: d.source}
	for i, c := range cols {
		out.index[c.Name] = i
	}
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Source returns load provenance, if any.
func (d *Dataset) Source() Source { return d.source }

// Columns returns the column names in declared order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the dataset has a column named name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the named column. The returned Values slice must not be
// modified.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.cols[i], true
}

// Type returns the declared type of the named column.
func (d *Dataset) Type(name string) (Type, bool) {
	c, ok := d.Column(name)
	return c.Type, ok
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.cols))
	for c := range d.cols {
		out[c] = d.cols[c].Values[i]
	}
	return out
}

// Select returns a dataset with only the given columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		i, ok := d.index[n]
		if !ok {
			return nil, missing("select", n)
		}
		if _, dup := seen[n]; dup {
			return nil, &SchemaError{Op: "select", Column: n, Msg: "selected twice"}
		}
		seen[n] = struct{}{}
		cols = append(cols, d.cols[i])
	}
	return d.derive(cols, d.rows), nil
}

// Drop returns a dataset without the given columns. Every named column must
// exist.
func (d *Dataset) Drop(names ...string) (*Dataset, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := d.index[n]; !ok {
			return nil, missing("drop", n)
		}
		drop[n] = struct{}{}
	}
	cols := make([]Column, 0, len(d.cols))
	for _, c := range d.cols {
		if _, ok := drop[c.Name]; ok {
			continue
		}
		cols = append(cols, c)
	}
	return d.derive(cols, d.rows), nil
}

// Rename applies mapping (old name -> new name) simultaneously, so a mapping
// may rename "a" to "b" while also renaming "b" to "c". Every old name must
// exist and the result must not contain duplicate names.
func (d *Dataset) Rename(mapping map[string]string) (*Dataset, error) {
	for old := range mapping {
		if _, ok := d.index[old]; !ok {
			return nil, missing("rename", old)
		}
	}
	cols := make([]Column, len(d.cols))
	seen := make(map[string]struct{}, len(d.cols))
	for i, c := range d.cols {
		if nn, ok := mapping[c.Name]; ok {
			if nn == "" {
				return nil, &SchemaError{Op: "rename", Column: c.Name, Msg: "empty target name"}
			}
			c.Name = nn
		}
		if _, dup := seen[c.Name]; dup {
			return nil, &SchemaError{Op: "rename", Column: c.Name, Msg: "rename produces a duplicate column"}
		}
		seen[c.Name] = struct{}{}
		cols[i] = c
	}
	return d.derive(cols, d.rows), nil
}

// LowercaseColumns lowercases every column name. Sources disagree on casing
// ("TITLE" vs "title") for the same logical column.
func (d *Dataset) LowercaseColumns() (*Dataset, error) {
	mapping := make(map[string]string, len(d.cols))
	for _, c := range d.cols {
		if lc := strings.ToLower(c.Name); lc != c.Name {
			mapping[c.Name] = lc
		}
	}
	if len(mapping) == 0 {
		return d, nil
	}
	out, err := d.Rename(mapping)
	if err != nil {
		return nil, &SchemaError{Op: "lowercase_columns", Msg: err.Error()}
	}
	return out, nil
}

// WithColumn returns a dataset where the column named c.Name is replaced by c,
// or c is appended when no such column exists.
func (d *Dataset) WithColumn(c Column) (*Dataset, error) {
	if len(d.cols) > 0 && len(c.Values) != d.rows {
		return nil, &SchemaError{Op: "with_column", Column: c.Name,
			Msg: fmt.Sprintf("has %d rows, want %d", len(c.Values), d.rows)}
	}
	for r, v := range c.Values {
		if !v.IsNull() && v.Kind() != c.Type {
			return nil, &SchemaError{Op: "with_column", Column: c.Name,
				Msg: fmt.Sprintf("row %d holds %s, column is %s", r, v.Kind(), c.Type)}
		}
	}
	cols := make([]Column, len(d.cols), len(d.cols)+1)
	copy(cols, d.cols)
	rows := d.rows
	if len(d.cols) == 0 {
		rows = len(c.Values)
	}
	if i, ok := d.index[c.Name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return d.derive(cols, rows), nil
}

// Filter keeps the rows for which keep returns true, preserving order.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	idx := make([]int, 0, d.rows)
	for r := 0; r < d.rows; r++ {
		if keep(r) {
			idx = append(idx, r)
		}
	}
	return d.take(idx)
}

// SplitBy partitions rows by the string rendering of column, returning one
// dataset per requested value in the same order. Rows matching none of the
// values are discarded.
func (d *Dataset) SplitBy(column string, values ...string) ([]*Dataset, error) {
	c, ok := d.Column(column)
	if !ok {
		return nil, missing("split_by", column)
	}
	pos := make(map[string]int, len(values))
	for i, v := range values {
		pos[v] = i
	}
	buckets := make([][]int, len(values))
	for r, v := range c.Values {
		if v.IsNull() {
			continue
		}
		if i, ok := pos[v.Render()]; ok {
			buckets[i] = append(buckets[i], r)
		}
	}
	out := make([]*Dataset, len(values))
	for i, b := range buckets {
		out[i] = d.take(b)
	}
	return out, nil
}

// take gathers rows by index; an index of -1 yields a null row.
func (d *Dataset) take(idx []int) *Dataset {
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		vs := make([]Value, len(idx))
		for j, r := range idx {
			if r >= 0 {
				vs[j] = c.Values[r]
			}
		}
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: vs}
	}
	return d.derive(cols, len(idx))
}
