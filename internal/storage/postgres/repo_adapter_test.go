package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

	repo, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://u@db/catalog"})
	require.NoError(t, err)
	assert.Same(t, stub, repo)
	assert.Equal(t, "postgres://u@db/catalog", gotDSN)

	refused := errors.New("dial refused")
	open = func(context.Context, string) (storage.Repository, error) { return nil, refused }
	_, err = storage.New(context.Background(), storage.Config{Kind: "postgres"})
	assert.ErrorIs(t, err, refused)
}

func TestDialect_Catalog(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	require.NoError(t, storage.EnsureSchema(context.Background(), "postgres", repo, schema.Catalog()))
	require.Len(t, repo.execs, len(schema.Catalog()))

	movie := repo.execs[0]
	assert.Contains(t, movie, `CREATE TABLE IF NOT EXISTS "movie" (`)
	assert.Contains(t, movie, `"id" TEXT NOT NULL,`)
	assert.Contains(t, movie, `"runtime" BIGINT NOT NULL,`)
	assert.Contains(t, movie, `PRIMARY KEY ("id")`)

	link := repo.execs[len(repo.execs)-1]
	assert.Contains(t, link, `"id" BIGINT GENERATED BY DEFAULT AS IDENTITY NOT NULL,`)
	assert.Contains(t, link, `FOREIGN KEY ("role") REFERENCES "role" ("id")`)
}

func TestCopyTarget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pgx.Identifier{"movie"}, copyTarget("movie"))
	assert.Equal(t, pgx.Identifier{"catalog", "movie"}, copyTarget("catalog.movie"))
	assert.Equal(t, pgx.Identifier{"catalog", "movie"}, copyTarget(".catalog..movie"))
}

func TestCopyError(t *testing.T) {
	t.Parallel()

	fkErr := &pgconn.PgError{Code: "23503", Detail: `Key (movie_id)=(tm9) is not present in table "movie".`}
	err := copyError("movie_genre_link", fmt.Errorf("copy: %w", fkErr))
	assert.ErrorIs(t, err, fkErr)
	assert.Contains(t, err.Error(), "copy into movie_genre_link (23503: Key (movie_id)=(tm9)")

	plain := errors.New("conn closed")
	assert.EqualError(t, copyError("movie", plain), "copy into movie: conn closed")
}
