// Package schema is the catalog of target tables: their columns, logical
// types, keys and foreign keys, listed in the order they must be written.
//
// The sink reads it to match and convert columns; package ddl renders it per
// SQL dialect.
package schema

// Logical column kinds. Dialect packages map them to SQL types.
const (
	KindText = "text"
	KindInt  = "int"
)

// Ref is a foreign key target.
type Ref struct {
	Table  string
	Column string
}

// Column is one column of a target table.
type Column struct {
	Name       string
	Kind       string
	Nullable   bool
	PrimaryKey bool
	// Identity columns are generated by the store and never written.
	Identity   bool
	References *Ref
}

// Table is one target table.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// InsertColumns returns the columns a writer supplies, i.e. every column
// except store-generated ones.
func (t Table) InsertColumns() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Identity {
			out = append(out, c)
		}
	}
	return out
}
