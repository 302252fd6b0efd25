package mysql

import (
	"catalogetl/internal/ddl"
	"catalogetl/internal/schema"
)

// Dialect renders catalog tables for MySQL. Text keys are VARCHAR(255)
// because LONGTEXT cannot be indexed without a prefix length.
var Dialect = ddl.Dialect{
	Name: "mysql",
	Types: map[string]string{
		schema.KindText: "LONGTEXT",
		schema.KindInt:  "BIGINT",
	},
	KeyText:  "VARCHAR(255)",
	Quote:    ddl.QuoteWith("`", "`"),
	Identity: func(typ string) string { return typ + " AUTO_INCREMENT" },
}
