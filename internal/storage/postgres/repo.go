// Package postgres is the Postgres backend. Rows are appended with COPY on a
// pgx pool; a table write holds one pooled connection and one transaction
// from Begin until Commit or Rollback.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalogetl/internal/storage"
)

// Repository implements storage.Repository on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.ConnConfig.Host, err)
	}
	return &Repository{pool: pool}, nil
}

// Begin acquires a connection and opens the transaction for table.
func (r *Repository) Begin(ctx context.Context, table string, columns []string) (storage.Session, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("begin %s: %w", table, err)
	}
	return &session{conn: conn, tx: tx, table: table, columns: columns}, nil
}

type session struct {
	conn    *pgxpool.Conn
	tx      pgx.Tx
	table   string
	columns []string
}

// CopyFrom streams one batch into the table with COPY.
func (s *session) CopyFrom(ctx context.Context, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := s.tx.CopyFrom(ctx, copyTarget(s.table), s.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, copyError(s.table, err)
	}
	return n, nil
}

func (s *session) Commit(ctx context.Context) error {
	defer s.conn.Release()
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", s.table, err)
	}
	return nil
}

func (s *session) Rollback(ctx context.Context) error {
	defer s.conn.Release()
	return s.tx.Rollback(ctx)
}

// Exec runs one statement on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// copyTarget turns a possibly schema-qualified name into a pgx identifier.
// Empty segments are skipped.
func copyTarget(table string) pgx.Identifier {
	var id pgx.Identifier
	for _, part := range strings.Split(table, ".") {
		if part != "" {
			id = append(id, part)
		}
	}
	return id
}

// copyError names the table and, for server errors, the SQLSTATE and the
// detail line, which usually names the offending key.
func copyError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg := pgErr.Code
		if pgErr.Detail != "" {
			msg += ": " + pgErr.Detail
		}
		return fmt.Errorf("copy into %s (%s): %w", table, msg, err)
	}
	return fmt.Errorf("copy into %s: %w", table, err)
}
