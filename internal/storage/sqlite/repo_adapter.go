package sqlite

import (
	"context"

	"catalogetl/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return Open(ctx, cfg.DSN)
	})
	storage.RegisterDialect("sqlite", Dialect)
}
