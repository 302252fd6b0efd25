// Package mysql implements a MySQL repository on database/sql with the
// go-sql-driver/mysql driver. A table write is one transaction of
// multi-row INSERT statements.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"catalogetl/internal/storage"
)

// maxPlaceholders is the server's limit on bound parameters per statement.
const maxPlaceholders = 65535

// Repository implements storage.Repository on database/sql.
type Repository struct {
	db *sql.DB
}

// Open parses dsn (e.g. "user:pass@tcp(localhost:3306)/catalog"), connects,
// and pings the server.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	return &Repository{db: db}, nil
}

// Begin opens the transaction for table.
func (r *Repository) Begin(ctx context.Context, table string, columns []string) (storage.Session, error) {
	if len(columns) == 0 {
		return nil, errors.New("mysql: Begin: columns must not be empty")
	}
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

// CopyFrom inserts one batch with as few multi-row INSERT statements as the
// placeholder limit allows.
func (s *session) CopyFrom(ctx context.Context, rows [][]any) (int64, error) {
	width := len(s.columns)
	per := maxPlaceholders / width
	var n int64
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		chunk := rows[start:end]
		args := make([]any, 0, len(chunk)*width)
		for i, row := range chunk {
			if len(row) != width {
				return n, fmt.Errorf("mysql: CopyFrom: row %d has %d values, want %d", start+i, len(row), width)
			}
			args = append(args, row...)
		}
		res, err := s.tx.ExecContext(ctx, insertSQL(s.table, s.columns, len(chunk)), args...)
		if err != nil {
			return n, describe(s.table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return n, fmt.Errorf("rows affected: %w", err)
		}
		n += affected
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

// Exec runs one statement on the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// Close closes the connection pool.
func (r *Repository) Close() { _ = r.db.Close() }

// insertSQL renders INSERT INTO `t` (`a`, `b`) VALUES (?, ?), (?, ?), ...
func insertSQL(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Dialect.Quote(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteFQN(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	return sb.String()
}

// describe adds the server error number to insert failures.
func describe(table string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("insert into %s: error %d: %w", table, myErr.Number, err)
	}
	return fmt.Errorf("insert into %s: %w", table, err)
}

func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = Dialect.Quote(p)
	}
	return strings.Join(parts, ".")
}
