package file

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "raw_titles.csv")
	require.NoError(t, os.WriteFile(p, []byte("id,title\ntm1,Dune\n"), 0o644))

	src := NewLocal(p)
	assert.Equal(t, p, src.Location())

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "id,title\ntm1,Dune\n", string(got))
}

func TestLocalOpen_Missing(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "raw_credits.csv")
	rc, err := NewLocal(p).Open(context.Background())
	require.Error(t, err)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "open "+p)
}

func TestLocalOpen_Canceled(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(p, []byte("a\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc, err := NewLocal(p).Open(ctx)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkLocalOpen(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		b.Fatal(err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		rc.Close()
	}
}
