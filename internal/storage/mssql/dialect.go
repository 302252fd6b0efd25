package mssql

import (
	"fmt"

	"catalogetl/internal/ddl"
	"catalogetl/internal/schema"
)

// Dialect renders catalog tables for SQL Server. Text keys use NVARCHAR(450),
// the widest NVARCHAR an index accepts. T-SQL has no CREATE TABLE IF NOT
// EXISTS, so the statement is guarded with OBJECT_ID.
var Dialect = ddl.Dialect{
	Name: "mssql",
	Types: map[string]string{
		schema.KindText: "NVARCHAR(MAX)",
		schema.KindInt:  "BIGINT",
	},
	KeyText:  "NVARCHAR(450)",
	Quote:    ddl.QuoteWith("[", "]"),
	Identity: func(typ string) string { return typ + " IDENTITY(1,1)" },
	Guard: func(table, create string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s;\nEND;", table, create)
	},
}
