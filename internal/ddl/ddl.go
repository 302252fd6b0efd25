// Package ddl renders CREATE TABLE statements for catalog tables. A Dialect
// describes how one SQL backend spells types, identifiers and the
// "create unless it exists" guard; Render applies it to a schema.Table.
package ddl

import (
	"fmt"
	"strings"

	"catalogetl/internal/schema"
)

// Dialect is one backend's DDL spelling.
type Dialect struct {
	// Name prefixes errors, e.g. "postgres".
	Name string

	// Types maps catalog kinds to SQL types. Every kind used by a rendered
	// table must be present.
	Types map[string]string

	// KeyText, when set, replaces the text type on primary and foreign key
	// columns. Backends that cannot index unbounded text need it.
	KeyText string

	// Quote quotes one identifier.
	Quote func(string) string

	// Identity spells a store-generated column of the given SQL type.
	Identity func(sqlType string) string

	// Guard wraps the CREATE TABLE statement so that it is a no-op when the
	// table exists. Nil means the dialect supports IF NOT EXISTS.
	Guard func(quotedTable, create string) string
}

// QuoteWith returns a quoting function that wraps identifiers in open and
// close, doubling any embedded close.
func QuoteWith(open, close string) func(string) string {
	return func(id string) string {
		return open + strings.ReplaceAll(id, close, close+close) + close
	}
}

// Render returns the statement creating t unless it already exists.
func Render(t schema.Table, d Dialect) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("%s ddl: table name must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: table %s has no columns", d.Name, t.Name)
	}

	var (
		lines []string
		keys  []string
		refs  []string
	)
	for _, c := range t.Columns {
		typ, err := d.columnType(t.Name, c)
		if err != nil {
			return "", err
		}
		line := d.Quote(c.Name) + " " + typ
		if !c.Nullable || c.PrimaryKey {
			line += " NOT NULL"
		}
		lines = append(lines, line)

		if c.PrimaryKey {
			keys = append(keys, d.Quote(c.Name))
		}
		if r := c.References; r != nil {
			refs = append(refs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				d.Quote(c.Name), d.Quote(r.Table), d.Quote(r.Column)))
		}
	}
	if len(keys) > 0 {
		lines = append(lines, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	lines = append(lines, refs...)

	table := d.Quote(t.Name)
	body := strings.Join(lines, ",\n  ")
	if d.Guard != nil {
		return d.Guard(table, fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", table, body)), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", table, body), nil
}

// RenderAll renders tables in order.
func RenderAll(tables []schema.Table, d Dialect) ([]string, error) {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		stmt, err := Render(t, d)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (d Dialect) columnType(table string, c schema.Column) (string, error) {
	typ, ok := d.Types[c.Kind]
	if !ok {
		return "", fmt.Errorf("%s ddl: %s.%s: no SQL type for kind %q", d.Name, table, c.Name, c.Kind)
	}
	if c.Kind == schema.KindText && d.KeyText != "" && (c.PrimaryKey || c.References != nil) {
		typ = d.KeyText
	}
	if c.Identity {
		typ = d.Identity(typ)
	}
	return typ, nil
}
