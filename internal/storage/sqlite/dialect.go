package sqlite

import (
	"catalogetl/internal/ddl"
	"catalogetl/internal/schema"
)

// Dialect renders catalog tables for SQLite. An INTEGER column that is the
// whole primary key aliases the rowid, so identity columns need no extra
// keyword.
var Dialect = ddl.Dialect{
	Name: "sqlite",
	Types: map[string]string{
		schema.KindText: "TEXT",
		schema.KindInt:  "INTEGER",
	},
	Quote:    ddl.QuoteWith(`"`, `"`),
	Identity: func(typ string) string { return typ },
}
