// Package multivalue turns a column whose cells hold lists of natural keys
// into a normalized pair of tables: a dimension table with one surrogate id
// per distinct key, and a link table with one row per (row key, id) pair.
//
// Ids are 1-based and assigned in first-seen order over the input rows, so
// the same input in the same row order always yields the same ids.
package multivalue

import (
	"fmt"

	"catalogetl/internal/dataset"
)

// IDColumn is the surrogate key column of every dimension table.
const IDColumn = "id"

// IDMap maps natural keys to surrogate ids.
type IDMap struct {
	ids    map[string]int64
	values []string
}

// AssignIDs numbers values from 1 in the given order. Repeated values keep
// the id of their first occurrence.
func AssignIDs(values []string) *IDMap {
	m := &IDMap{ids: make(map[string]int64, len(values)), values: make([]string, 0, len(values))}
	for _, v := range values {
		if _, ok := m.ids[v]; ok {
			continue
		}
		m.values = append(m.values, v)
		m.ids[v] = int64(len(m.values))
	}
	return m
}

// Lookup returns the id of value.
func (m *IDMap) Lookup(value string) (int64, bool) {
	id, ok := m.ids[value]
	return id, ok
}

// Len returns the number of distinct values.
func (m *IDMap) Len() int { return len(m.values) }

// Values returns the values in id order; Values()[i] has id i+1.
func (m *IDMap) Values() []string { return append([]string(nil), m.values...) }

// MapStats counts what MapValuesToIDs did with each token.
type MapStats struct {
	Rows    int // non-null cells
	Tokens  int
	Mapped  int
	Dropped int // tokens with no id in the map
}

// ExtractUniqueValues returns the distinct tokens of column across all rows,
// in first-seen order. String cells are parsed with ParseList; string-list
// cells are trimmed and normalized token by token. Nulls and empty tokens are
// skipped.
func ExtractUniqueValues(ds *dataset.Dataset, column string) ([]string, error) {
	c, err := listColumn(ds, "extract_unique_values", column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, v := range c.Values {
		for _, tok := range tokens(v) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out, nil
}

// MapValuesToIDs returns a dataset where column is replaced by an int-list
// column of ids. Tokens missing from ids are left out of the row's list and
// counted in MapStats.Dropped. Null cells stay null.
func MapValuesToIDs(ds *dataset.Dataset, column string, ids *IDMap) (*dataset.Dataset, MapStats, error) {
	var st MapStats
	c, err := listColumn(ds, "map_values_to_ids", column)
	if err != nil {
		return nil, st, err
	}
	vs := make([]dataset.Value, len(c.Values))
	for r, v := range c.Values {
		if v.IsNull() {
			continue
		}
		st.Rows++
		toks := tokens(v)
		row := make([]int64, 0, len(toks))
		for _, tok := range toks {
			st.Tokens++
			id, ok := ids.Lookup(tok)
			if !ok {
				st.Dropped++
				continue
			}
			st.Mapped++
			row = append(row, id)
		}
		vs[r] = dataset.Ints(row)
	}
	out, err := ds.WithColumn(dataset.Column{Name: column, Type: dataset.TypeIntList, Values: vs})
	return out, st, err
}

// BuildLinkTable selects keyColumns plus valueColumn and explodes the list in
// valueColumn: a row holding n elements becomes n rows repeating the key
// values. Null and empty lists contribute no rows. valueColumn keeps its name
// and takes the element type (int for ids, string for raw tokens).
func BuildLinkTable(ds *dataset.Dataset, valueColumn string, keyColumns ...string) (*dataset.Dataset, error) {
	if len(keyColumns) == 0 {
		return nil, &dataset.SchemaError{Op: "build_link_table", Column: valueColumn, Msg: "no key columns"}
	}
	vc, ok := ds.Column(valueColumn)
	if !ok {
		return nil, &dataset.SchemaError{Op: "build_link_table", Column: valueColumn, Msg: "no such column"}
	}
	var elem dataset.Type
	switch vc.Type {
	case dataset.TypeIntList:
		elem = dataset.TypeInt
	case dataset.TypeStringList:
		elem = dataset.TypeString
	default:
		return nil, &dataset.SchemaError{Op: "build_link_table", Column: valueColumn,
			Msg: fmt.Sprintf("column is %s, want a list", vc.Type)}
	}
	src := make([]dataset.Column, len(keyColumns))
	keys := make([]dataset.Column, len(keyColumns))
	for i, k := range keyColumns {
		c, ok := ds.Column(k)
		if !ok {
			return nil, &dataset.SchemaError{Op: "build_link_table", Column: k, Msg: "no such column"}
		}
		if c.Type.IsList() {
			return nil, &dataset.SchemaError{Op: "build_link_table", Column: k, Msg: "key column is a list"}
		}
		src[i] = c
		keys[i] = dataset.Column{Name: c.Name, Type: c.Type, Values: []dataset.Value{}}
	}
	val := dataset.Column{Name: valueColumn, Type: elem, Values: []dataset.Value{}}

	for r, v := range vc.Values {
		if v.IsNull() {
			continue
		}
		var elems []dataset.Value
		if elem == dataset.TypeInt {
			for _, id := range v.AsInts() {
				elems = append(elems, dataset.Int(id))
			}
		} else {
			for _, s := range v.AsStrings() {
				elems = append(elems, dataset.Str(s))
			}
		}
		for _, e := range elems {
			for i := range keys {
				keys[i].Values = append(keys[i].Values, src[i].Values[r])
			}
			val.Values = append(val.Values, e)
		}
	}
	return dataset.New(append(keys, val)...)
}

// MaterializeDimensionTable wraps values into a two-column table (IDColumn,
// entityColumn) where values[i] gets id i+1.
func MaterializeDimensionTable(values []string, entityColumn string) (*dataset.Dataset, error) {
	ids := make([]int64, len(values))
	for i := range values {
		ids[i] = int64(i + 1)
	}
	return dataset.New(
		dataset.IntColumn(IDColumn, ids...),
		dataset.StringColumn(entityColumn, values...),
	)
}

// listColumn checks that column exists and holds strings or string lists.
func listColumn(ds *dataset.Dataset, op, column string) (dataset.Column, error) {
	c, ok := ds.Column(column)
	if !ok {
		return c, &dataset.SchemaError{Op: op, Column: column, Msg: "no such column"}
	}
	if c.Type != dataset.TypeString && c.Type != dataset.TypeStringList {
		return c, &dataset.SchemaError{Op: op, Column: column,
			Msg: fmt.Sprintf("column is %s, want string or string list", c.Type)}
	}
	return c, nil
}

// tokens returns the cleaned tokens of one cell.
func tokens(v dataset.Value) []string {
	switch v.Kind() {
	case dataset.TypeString:
		return ParseList(v.AsString())
	case dataset.TypeStringList:
		out := make([]string, 0, len(v.AsStrings()))
		for _, s := range v.AsStrings() {
			if tok := clean(s); tok != "" {
				out = append(out, tok)
			}
		}
		return out
	default:
		return nil
	}
}
