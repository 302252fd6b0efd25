package postgres

import (
	"catalogetl/internal/ddl"
	"catalogetl/internal/schema"
)

// Dialect renders catalog tables for Postgres.
var Dialect = ddl.Dialect{
	Name: "postgres",
	Types: map[string]string{
		schema.KindText: "TEXT",
		schema.KindInt:  "BIGINT",
	},
	Quote:    ddl.QuoteWith(`"`, `"`),
	Identity: func(typ string) string { return typ + " GENERATED BY DEFAULT AS IDENTITY" },
}
