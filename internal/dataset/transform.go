package dataset

import "fmt"

// Values written by FlagPresence.
const (
	FlagYes = "Y"
	FlagNo  = "N"
)

// NullifyEmpty turns every empty-string cell of every string column into
// null, so that "no value" and "present but blank" are not told apart later.
func (d *Dataset) NullifyEmpty() *Dataset {
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c
		if c.Type != TypeString {
			continue
		}
		var vs []Value
		for r, v := range c.Values {
			if v.IsNull() || v.AsString() != "" {
				continue
			}
			if vs == nil {
				vs = make([]Value, len(c.Values))
				copy(vs, c.Values)
			}
			vs[r] = Null()
		}
		if vs != nil {
			cols[i].Values = vs
		}
	}
	return d.derive(cols, d.rows)
}

// FlagPresence replaces column with a string flag: FlagNo where the original
// cell was null or empty, FlagYes otherwise.
func (d *Dataset) FlagPresence(column string) (*Dataset, error) {
	c, ok := d.Column(column)
	if !ok {
		return nil, missing("flag_presence", column)
	}
	vs := make([]Value, len(c.Values))
	for r, v := range c.Values {
		if v.IsEmpty() {
			vs[r] = Str(FlagNo)
		} else {
			vs[r] = Str(FlagYes)
		}
	}
	return d.WithColumn(Column{Name: column, Type: TypeString, Values: vs})
}

// CoerceToString retypes column as string using each cell's canonical
// rendering. Nulls stay null.
func (d *Dataset) CoerceToString(column string) (*Dataset, error) {
	c, ok := d.Column(column)
	if !ok {
		return nil, missing("coerce_to_string", column)
	}
	if c.Type == TypeString {
		return d, nil
	}
	vs := make([]Value, len(c.Values))
	for r, v := range c.Values {
		if !v.IsNull() {
			vs[r] = Str(v.Render())
		}
	}
	return d.WithColumn(Column{Name: column, Type: TypeString, Values: vs})
}

// MapToList converts a scalar column into a string-list column by applying
// split to each non-null cell's text. Null cells stay null.
func (d *Dataset) MapToList(column string, split func(string) []string) (*Dataset, error) {
	c, ok := d.Column(column)
	if !ok {
		return nil, missing("map_to_list", column)
	}
	switch c.Type {
	case TypeStringList:
		return d, nil
	case TypeIntList:
		return nil, &SchemaError{Op: "map_to_list", Column: column, Msg: fmt.Sprintf("column is %s", c.Type)}
	}
	vs := make([]Value, len(c.Values))
	for r, v := range c.Values {
		if v.IsNull() {
			continue
		}
		toks := split(v.Render())
		if toks == nil {
			toks = []string{}
		}
		vs[r] = Strings(toks)
	}
	return d.WithColumn(Column{Name: column, Type: TypeStringList, Values: vs})
}

// DropNullRows removes rows where any of the given columns is null.
func (d *Dataset) DropNullRows(columns ...string) (*Dataset, error) {
	check := make([]Column, len(columns))
	for i, name := range columns {
		c, ok := d.Column(name)
		if !ok {
			return nil, missing("drop_null_rows", name)
		}
		check[i] = c
	}
	return d.Filter(func(r int) bool {
		for _, c := range check {
			if c.Values[r].IsNull() {
				return false
			}
		}
		return true
	}), nil
}
