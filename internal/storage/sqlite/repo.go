// Package sqlite is the SQLite backend on modernc.org/sqlite (pure Go, no
// cgo). A table write is one transaction with one prepared INSERT.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"catalogetl/internal/storage"
)

// Repository implements storage.Repository on database/sql.
type Repository struct {
	db *sql.DB
}

// Open opens dsn, which is a file path, a file: URI, or ":memory:", and
// enables foreign keys.
//
// The pool holds a single connection: SQLite has one writer, and an
// in-memory database lives only on the connection that created it.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return &Repository{db: db}, nil
}

// Begin opens a transaction and prepares the INSERT for table.
func (r *Repository) Begin(ctx context.Context, table string, columns []string) (storage.Session, error) {
	if len(columns) == 0 {
		return nil, errors.New("sqlite: Begin: columns must not be empty")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("sqlite: prepare insert into %s: %w", table, err)
	}
	return &session{tx: tx, stmt: stmt, table: table, width: len(columns)}, nil
}

type session struct {
	tx    *sql.Tx
	stmt  *sql.Stmt
	table string
	width int
	// rows counts inserts across batches for error messages.
	rows int
}

// CopyFrom inserts one batch. Every row must have one value per column.
func (s *session) CopyFrom(ctx context.Context, rows [][]any) (int64, error) {
	var n int64
	for _, row := range rows {
		if len(row) != s.width {
			return n, fmt.Errorf("sqlite: CopyFrom: row %d has %d values, want %d", s.rows, len(row), s.width)
		}
		if _, err := s.stmt.ExecContext(ctx, row...); err != nil {
			return n, fmt.Errorf("sqlite: insert into %s, row %d: %w", s.table, s.rows, err)
		}
		s.rows++
		n++
	}
	return n, nil
}

func (s *session) Commit(context.Context) error {
	_ = s.stmt.Close()
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %s: %w", s.table, err)
	}
	return nil
}

func (s *session) Rollback(context.Context) error {
	_ = s.stmt.Close()
	return s.tx.Rollback()
}

// insertSQL renders INSERT INTO "t" ("a", "b") VALUES (?, ?).
func insertSQL(table string, columns []string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = Dialect.Quote(p)
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Dialect.Quote(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		strings.Join(parts, "."), strings.Join(quoted, ", "), marks)
}

// Exec runs one statement. Blank statements are skipped.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() { _ = r.db.Close() }
