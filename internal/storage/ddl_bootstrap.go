package storage

import (
	"context"
	"fmt"
	"sync"

	"catalogetl/internal/ddl"
	"catalogetl/internal/schema"
)

var (
	dialectMu sync.RWMutex
	dialects  = map[string]ddl.Dialect{}
)

// RegisterDialect registers the DDL dialect for kind. Backends call it from
// init next to Register.
func RegisterDialect(kind string, d ddl.Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// Dialect returns the DDL dialect registered for kind.
func Dialect(kind string) (ddl.Dialect, bool) {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// EnsureSchema creates every table that does not exist yet, in the given
// order, using the dialect registered for kind. Existing tables are left
// alone.
func EnsureSchema(ctx context.Context, kind string, repo Repository, tables []schema.Table) error {
	d, ok := Dialect(kind)
	if !ok {
		return fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	for _, t := range tables {
		stmt, err := ddl.Render(t, d)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return nil
}
