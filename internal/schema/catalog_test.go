package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Order(t *testing.T) {
	t.Parallel()

	var names []string
	for _, tbl := range Catalog() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{
		"movie", "movie_genre", "movie_genre_link",
		"movie_production_country", "movie_production_country_link",
		"show", "show_genre", "show_production_country",
		"show_genre_link", "show_production_country_link",
		"credit", "actor", "role", "movie_actor", "show_actor",
	}, names)
}

func TestCatalog_ReferencesPrecede(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, tbl := range Catalog() {
		for _, c := range tbl.Columns {
			if c.References == nil {
				continue
			}
			assert.True(t, seen[c.References.Table], "%s.%s references %s before it is written",
				tbl.Name, c.Name, c.References.Table)
			target, ok := Lookup(c.References.Table)
			require.True(t, ok)
			tc, ok := target.Column(c.References.Column)
			require.True(t, ok)
			assert.Equal(t, tc.Kind, c.Kind, "%s.%s kind", tbl.Name, c.Name)
		}
		seen[tbl.Name] = true
	}
}

func TestTable_InsertColumns(t *testing.T) {
	t.Parallel()

	link, ok := Lookup(TableMovieGenreLink)
	require.True(t, ok)
	var names []string
	for _, c := range link.InsertColumns() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"movie_id", "genre_id"}, names)

	show, _ := Lookup(TableShow)
	assert.Len(t, show.InsertColumns(), 15)
	movie, _ := Lookup(TableMovie)
	assert.Len(t, movie.InsertColumns(), 13)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
