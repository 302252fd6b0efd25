package mssql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
)

type stubRepo struct{ execs []string }

func (s *stubRepo) Begin(context.Context, string, []string) (storage.Session, error) {
	return nil, errors.New("stub has no sessions")
}
func (s *stubRepo) Exec(_ context.Context, sql string) error {
	s.execs = append(s.execs, sql)
	return nil
}
func (s *stubRepo) Close() {}

// Not parallel: swaps the package-level open hook.
func TestRegistered(t *testing.T) {
	orig := open
	t.Cleanup(func() { open = orig })

	var gotDSN string
	stub := &stubRepo{}
	open = func(_ context.Context, dsn string) (storage.Repository, error) {
		gotDSN = dsn
		return stub, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mssql", DSN: "sqlserver://sa@db?database=catalog"})
	require.NoError(t, err)
	assert.Same(t, stub, repo)
	assert.Equal(t, "sqlserver://sa@db?database=catalog", gotDSN)
}

func TestDialect_Catalog(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	require.NoError(t, storage.EnsureSchema(context.Background(), "mssql", repo, schema.Catalog()))
	require.Len(t, repo.execs, len(schema.Catalog()))

	movie := repo.execs[0]
	assert.Contains(t, movie, "IF OBJECT_ID(N'[movie]', N'U') IS NULL\nBEGIN\nCREATE TABLE [movie] (")
	assert.Contains(t, movie, "[id] NVARCHAR(450) NOT NULL,")
	assert.Contains(t, movie, "[title] NVARCHAR(MAX),")
	assert.Contains(t, movie, ");\nEND;")

	actors := repo.execs[len(repo.execs)-1]
	assert.Contains(t, actors, "[id] BIGINT IDENTITY(1,1) NOT NULL,")
	assert.Contains(t, actors, "[show_id] NVARCHAR(450) NOT NULL,")
	assert.Contains(t, actors, "FOREIGN KEY ([show_id]) REFERENCES [show] ([id])")
}

func TestBracketed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[movie]", bracketed("movie"))
	assert.Equal(t, "[dbo].[movie_genre]", bracketed("dbo.movie_genre"))
	assert.Equal(t, "[odd]]name]", bracketed("odd]name"))
}

func TestOpen_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "sqlserver://%zz")
	assert.ErrorContains(t, err, "mssql dsn")
}

// refusingConnector yields connections that fail every transaction and
// statement, so the error paths run without a server.
type refusingConnector struct{}

func (refusingConnector) Connect(context.Context) (driver.Conn, error) { return refusingConn{}, nil }
func (refusingConnector) Driver() driver.Driver                        { return refusingDriver{} }

type refusingDriver struct{}

func (refusingDriver) Open(string) (driver.Conn, error) { return refusingConn{}, nil }

type refusingConn struct{}

func (refusingConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare refused") }
func (refusingConn) Close() error                        { return nil }
func (refusingConn) Begin() (driver.Tx, error)           { return nil, errors.New("begin refused") }
func (refusingConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return nil, errors.New("begin refused")
}
func (refusingConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return nil, errors.New("exec refused")
}

func TestRepository_ErrorPaths(t *testing.T) {
	t.Parallel()

	r := &Repository{db: sql.OpenDB(refusingConnector{})}
	defer r.Close()

	assert.ErrorContains(t, r.Exec(context.Background(), "SELECT 1"), "exec refused")

	sess, err := r.Begin(context.Background(), "movie_genre", []string{"id", "genre"})
	assert.Nil(t, sess)
	assert.ErrorContains(t, err, "begin tx: begin refused")
}
