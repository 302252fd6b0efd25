package csv_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcsv "catalogetl/internal/parser/csv"
)

func TestParse_HeaderAndRows(t *testing.T) {
	t.Parallel()

	in := "\uFEFFindex,TITLE , genres\n0,Taxi Driver,\"['drama', 'crime']\"\n1,Deliverance,[]\n"
	p := pcsv.NewParser(pcsv.Options{TrimSpace: true})

	tbl, err := p.Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"index", "TITLE", "genres"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"0", "Taxi Driver", "['drama', 'crime']"}, tbl.Rows[0])
	assert.Equal(t, []string{"1", "Deliverance", "[]"}, tbl.Rows[1])
}

func TestParse_HeaderMapAndComma(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{
		Comma:     ';',
		HeaderMap: map[string]string{"Název": "title"},
	})
	tbl, err := p.Parse(strings.NewReader("id;Název\ntm1;Roma\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, tbl.Header)
	assert.Equal(t, [][]string{{"tm1", "Roma"}}, tbl.Rows)
}

func TestParse_HeaderOnly(t *testing.T) {
	t.Parallel()

	tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{name: "empty input", in: "", wantErr: "missing header"},
		{name: "short row", in: "a,b\n1\n", wantErr: "line 2: incorrect number of fields"},
		{name: "long row", in: "a,b\n1,2\n1,2,3\n", wantErr: "line 3"},
		{name: "bad quote", in: "a,b\n\"x,2\n", wantErr: "quote"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_NoHeaderSentinel(t *testing.T) {
	t.Parallel()

	_, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(""))
	assert.True(t, errors.Is(err, pcsv.ErrNoHeader))
}
