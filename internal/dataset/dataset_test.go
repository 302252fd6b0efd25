package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(t *testing.T) *Dataset {
	t.Helper()
	return MustNew(
		StringColumn("id", "tm1", "ts2", "tm3"),
		StringColumn("TITLE", "Taxi Driver", "Monty Python", "Deliverance"),
		StringColumn("type", "MOVIE", "SHOW", "MOVIE"),
		Column{Name: "imdb_votes", Type: TypeInt, Values: []Value{Int(808582), Null(), Int(107673)}},
	)
}

func strs(t *testing.T, d *Dataset, col string) []string {
	t.Helper()
	c, ok := d.Column(col)
	require.True(t, ok, "column %q missing; have %v", col, d.Columns())
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.String()
	}
	return out
}

func requireSchemaError(t *testing.T, err error, op string) {
	t.Helper()
	var se *SchemaError
	require.True(t, errors.As(err, &se), "want *SchemaError, got %T: %v", err, err)
	assert.Equal(t, op, se.Op)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cols []Column
		msg  string
	}{
		{
			name: "ragged",
			cols: []Column{StringColumn("a", "x", "y"), StringColumn("b", "x")},
			msg:  "has 1 rows, want 2",
		},
		{
			name: "duplicate",
			cols: []Column{StringColumn("a", "x"), StringColumn("a", "y")},
			msg:  "duplicate column",
		},
		{
			name: "empty name",
			cols: []Column{StringColumn("", "x")},
			msg:  "empty name",
		},
		{
			name: "wrong cell type",
			cols: []Column{{Name: "a", Type: TypeInt, Values: []Value{Str("x")}}},
			msg:  "holds string, column is int",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cols...)
			requireSchemaError(t, err, "new")
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLowercaseColumns(t *testing.T) {
	t.Parallel()

	d := titles(t)
	lc, err := d.LowercaseColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "type", "imdb_votes"}, lc.Columns())
	// Receiver untouched.
	assert.Equal(t, []string{"id", "TITLE", "type", "imdb_votes"}, d.Columns())

	clash := MustNew(StringColumn("Title", "a"), StringColumn("title", "b"))
	_, err = clash.LowercaseColumns()
	requireSchemaError(t, err, "lowercase_columns")
}

func TestRename_Simultaneous(t *testing.T) {
	t.Parallel()

	d := MustNew(
		StringColumn("release_year", "Y"),
		StringColumn("release_year_x", "1976"),
	)
	out, err := d.Rename(map[string]string{
		"release_year":   "is_movie_best_in_release_year",
		"release_year_x": "release_year",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"is_movie_best_in_release_year", "release_year"}, out.Columns())
	assert.Equal(t, []string{"Y"}, strs(t, out, "is_movie_best_in_release_year"))
	assert.Equal(t, []string{"1976"}, strs(t, out, "release_year"))
}

func TestRename_Errors(t *testing.T) {
	t.Parallel()

	d := titles(t)
	_, err := d.Rename(map[string]string{"nope": "x"})
	requireSchemaError(t, err, "rename")

	_, err = d.Rename(map[string]string{"type": "id"})
	requireSchemaError(t, err, "rename")
	assert.Contains(t, err.Error(), "duplicate")
}

func TestDropAndSelect(t *testing.T) {
	t.Parallel()

	d := titles(t)
	out, err := d.Drop("TITLE", "imdb_votes")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "type"}, out.Columns())
	assert.Equal(t, 3, out.Len())

	_, err = d.Drop("id", "missing")
	requireSchemaError(t, err, "drop")

	sel, err := d.Select("type", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "id"}, sel.Columns())

	_, err = d.Select("id", "id")
	requireSchemaError(t, err, "select")
}

func TestSplitBy(t *testing.T) {
	t.Parallel()

	parts, err := titles(t).SplitBy("type", "MOVIE", "SHOW")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"tm1", "tm3"}, strs(t, parts[0], "id"))
	assert.Equal(t, []string{"ts2"}, strs(t, parts[1], "id"))

	_, err = titles(t).SplitBy("kind", "MOVIE")
	requireSchemaError(t, err, "split_by")
}

func TestNullifyEmptyAndFlagPresence(t *testing.T) {
	t.Parallel()

	d := MustNew(
		StringColumn("title", "a", "b", "c"),
		Column{Name: "release_year", Type: TypeString, Values: []Value{Str("2019"), Str(""), Null()}},
	)
	n := d.NullifyEmpty()
	assert.Equal(t, []string{"2019", "<null>", "<null>"}, strs(t, n, "release_year"))
	assert.Equal(t, []string{"2019", "", "<null>"}, strs(t, d, "release_year"), "receiver must not change")

	f, err := n.FlagPresence("release_year")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "N", "N"}, strs(t, f, "release_year"))
	typ, _ := f.Type("release_year")
	assert.Equal(t, TypeString, typ)

	// Empty strings are absent even without NullifyEmpty.
	f2, err := d.FlagPresence("release_year")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "N", "N"}, strs(t, f2, "release_year"))

	_, err = d.FlagPresence("nope")
	requireSchemaError(t, err, "flag_presence")
}

func TestCoerceToString(t *testing.T) {
	t.Parallel()

	d := MustNew(Column{Name: "v", Type: TypeFloat, Values: []Value{Float(7), Float(6.5), Null()}})
	out, err := d.CoerceToString("v")
	require.NoError(t, err)
	typ, _ := out.Type("v")
	assert.Equal(t, TypeString, typ)
	assert.Equal(t, []string{"7", "6.5", "<null>"}, strs(t, out, "v"))

	ints, err := titles(t).CoerceToString("imdb_votes")
	require.NoError(t, err)
	assert.Equal(t, []string{"808582", "<null>", "107673"}, strs(t, ints, "imdb_votes"))
}

func TestMapToList(t *testing.T) {
	t.Parallel()

	d := MustNew(Column{Name: "g", Type: TypeString, Values: []Value{Str("a|b"), Null(), Str("")}})
	split := func(s string) []string {
		if s == "" {
			return nil
		}
		return strings.Split(s, "|")
	}
	out, err := d.MapToList("g", split)
	require.NoError(t, err)
	c, _ := out.Column("g")
	assert.Equal(t, TypeStringList, c.Type)
	assert.Equal(t, []string{"a", "b"}, c.Values[0].AsStrings())
	assert.True(t, c.Values[1].IsNull())
	assert.False(t, c.Values[2].IsNull())
	assert.Empty(t, c.Values[2].AsStrings())
}

func TestWithColumn(t *testing.T) {
	t.Parallel()

	d := titles(t)
	out, err := d.WithColumn(StringColumn("type", "a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, d.Columns(), out.Columns())
	assert.Equal(t, []string{"a", "b", "c"}, strs(t, out, "type"))

	_, err = d.WithColumn(StringColumn("extra", "a"))
	requireSchemaError(t, err, "with_column")
}

func TestRow(t *testing.T) {
	t.Parallel()

	d := titles(t)
	row := d.Row(1)
	require.Len(t, row, 4)
	assert.Equal(t, "ts2", row[0].AsString())
	assert.True(t, row[3].IsNull())

	assert.Equal(t, int64(107673), d.Row(2)[3].AsInt())
}

func TestFilterAndDropNullRows(t *testing.T) {
	t.Parallel()

	d := titles(t)
	kept, err := d.DropNullRows("imdb_votes")
	require.NoError(t, err)
	assert.Equal(t, []string{"tm1", "tm3"}, strs(t, kept, "id"))

	_, err = d.DropNullRows("nope")
	requireSchemaError(t, err, "drop_null_rows")

	movies := d.Filter(func(r int) bool {
		return d.Row(r)[2].AsString() == "MOVIE"
	})
	assert.Equal(t, 2, movies.Len())
	assert.Equal(t, 3, d.Len())
}
