// Package mssql is the SQL Server backend. A table write is one transaction;
// each batch inside it is one bulk copy (go-mssqldb CopyIn).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"catalogetl/internal/storage"
)

// Repository implements storage.Repository on database/sql.
type Repository struct {
	db *sql.DB
}

// Open validates dsn, connects, and pings the server.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// Begin opens the transaction for table.
func (r *Repository) Begin(ctx context.Context, table string, columns []string) (storage.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &session{tx: tx, table: table, columns: columns}, nil
}

type session struct {
	tx      *sql.Tx
	table   string
	columns []string
}

// CopyFrom bulk-copies one batch.
func (s *session) CopyFrom(ctx context.Context, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	bulk := mssql.CopyIn(bracketed(s.table), mssql.BulkOptions{CheckConstraints: true, KeepNulls: true}, s.columns...)
	stmt, err := s.tx.PrepareContext(ctx, bulk)
	if err != nil {
		return 0, fmt.Errorf("prepare bulk copy into %s: %w", s.table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("bulk copy into %s, row %d: %w", s.table, i, err)
		}
	}
	// An Exec without arguments flushes the bulk copy.
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk copy into %s: %w", s.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *session) Commit(context.Context) error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", s.table, err)
	}
	return nil
}

func (s *session) Rollback(context.Context) error { return s.tx.Rollback() }

// Exec runs one statement or batch.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// Close closes the connection pool.
func (r *Repository) Close() { _ = r.db.Close() }

// bracketed quotes each segment of a possibly schema-qualified name:
// dbo.movie becomes [dbo].[movie].
func bracketed(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = Dialect.Quote(p)
	}
	return strings.Join(parts, ".")
}
