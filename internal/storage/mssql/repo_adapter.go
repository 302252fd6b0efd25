package mssql

import (
	"context"

	"catalogetl/internal/storage"
)

// open is swapped by tests to avoid a live server.
var open = func(ctx context.Context, dsn string) (storage.Repository, error) {
	return Open(ctx, dsn)
}

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return open(ctx, cfg.DSN)
	})
	storage.RegisterDialect("mssql", Dialect)
}
