package multivalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogetl/internal/dataset"
)

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "python literal", raw: "['drama', 'crime']", want: []string{"drama", "crime"}},
		{name: "double quotes", raw: `["US", "GB"]`, want: []string{"US", "GB"}},
		{name: "no spaces", raw: "['Drama','Comedy']", want: []string{"Drama", "Comedy"}},
		{name: "empty list", raw: "[]", want: nil},
		{name: "empty string", raw: "", want: nil},
		{name: "blank tokens", raw: "['a', ' ', '', 'b']", want: []string{"a", "b"}},
		{name: "bare value", raw: "  scifi ", want: []string{"scifi"}},
		// "e" + combining acute composes to a single rune.
		{name: "nfc", raw: "['Cafe\u0301']", want: []string{"Caf\u00e9"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseList(tt.raw))
		})
	}
}

func TestScalarToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Mike O'Brien"}, ScalarToken(" Mike O'Brien "))
	assert.Equal(t, []string{"Smith, Jr."}, ScalarToken("Smith, Jr."))
	assert.Nil(t, ScalarToken("   "))
}

func TestListColumns(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew(
		dataset.StringColumn("id", "tm1", "tm2"),
		dataset.Column{Name: "genres", Type: dataset.TypeString,
			Values: []dataset.Value{dataset.Str("['drama', 'crime']"), dataset.Null()}},
	)
	out, err := ParseListColumn(ds, "genres")
	require.NoError(t, err)
	c, _ := out.Column("genres")
	assert.Equal(t, dataset.TypeStringList, c.Type)
	assert.Equal(t, []string{"drama", "crime"}, c.Values[0].AsStrings())
	assert.True(t, c.Values[1].IsNull())

	sc, err := ScalarListColumn(ds, "genres")
	require.NoError(t, err)
	c, _ = sc.Column("genres")
	assert.Equal(t, []string{"['drama', 'crime']"}, c.Values[0].AsStrings())

	_, err = ParseListColumn(ds, "nope")
	assert.Error(t, err)
}
