// Package all registers every built-in storage backend: postgres, mssql,
// mysql and sqlite. Import it for side effects:
//
//	import _ "catalogetl/internal/storage/all"
//
// A binary that needs only some backends imports those packages instead.
package all

import (
	_ "catalogetl/internal/storage/mssql"
	_ "catalogetl/internal/storage/mysql"
	_ "catalogetl/internal/storage/postgres"
	_ "catalogetl/internal/storage/sqlite"
)
