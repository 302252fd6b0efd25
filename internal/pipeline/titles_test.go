package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogetl/internal/dataset"
)

func strs(t *testing.T, d *dataset.Dataset, col string) []string {
	t.Helper()
	c, ok := d.Column(col)
	require.True(t, ok, "column %q missing; have %v", col, d.Columns())
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.String()
	}
	return out
}

// movieFixtures returns movie titles with parsed list columns plus both
// rankings. Taxi Driver is in both rankings, Deliverance only in the by-title
// one and Empty Film in neither.
func movieFixtures(t *testing.T) (titles, byTitle, byYear *dataset.Dataset) {
	t.Helper()
	titles = dataset.MustNew(
		dataset.IntColumn("index", 0, 1, 2),
		dataset.StringColumn("id", "m1", "m2", "m3"),
		dataset.StringColumn("title", "Taxi Driver", "Deliverance", "Empty Film"),
		dataset.StringColumn("type", "MOVIE", "MOVIE", "MOVIE"),
		dataset.IntColumn("release_year", 1976, 1972, 2001),
		dataset.StringColumn("genres", "['Drama','Comedy']", "['Drama']", "[]"),
		dataset.StringColumn("production_countries", "['US']", "", "['US', 'GB']"),
		dataset.Column{Name: "seasons", Type: dataset.TypeFloat, Values: []dataset.Value{dataset.Null(), dataset.Null(), dataset.Null()}},
	)
	var err error
	titles, err = parseTitleLists(titles)
	require.NoError(t, err)

	byTitle = dataset.MustNew(
		dataset.IntColumn("index", 0, 1),
		dataset.StringColumn("TITLE", "Taxi Driver", "Deliverance"),
		dataset.IntColumn("RELEASE_YEAR", 1976, 1972),
		dataset.StringColumn("SCORE", "8.2", "7.7"),
		dataset.IntColumn("NUMBER_OF_VOTES", 808582, 107673),
		dataset.IntColumn("DURATION", 114, 109),
		dataset.StringColumn("MAIN_GENRE", "crime", "thriller"),
		dataset.StringColumn("MAIN_PRODUCTION", "US", "US"),
	)
	byYear = dataset.MustNew(
		dataset.IntColumn("index", 0),
		dataset.StringColumn("TITLE", "Taxi Driver"),
		dataset.IntColumn("RELEASE_YEAR", 1976),
		dataset.StringColumn("SCORE", "8.2"),
		dataset.StringColumn("MAIN_GENRE", "drama"),
		dataset.StringColumn("MAIN_PRODUCTION", "US"),
	)
	return titles, byTitle, byYear
}

func TestBuildTitles_Movies(t *testing.T) {
	t.Parallel()

	titles, byTitle, byYear := movieFixtures(t)
	out, err := BuildTitles(titles, byTitle, byYear, moviePlan(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"id", "title", "type", "release_year", "duration", "is_movie_best_in_release_year",
		"main_genre", "main_production",
	}, out.Titles.Columns())

	assert.Equal(t, []string{"Y", "N", "N"}, strs(t, out.Titles, "is_movie_best_in_release_year"))
	assert.Equal(t, []string{"drama", "<null>", "<null>"}, strs(t, out.Titles, "main_genre"))
	assert.Equal(t, []string{"1976", "1972", "<null>"}, strs(t, out.Titles, "release_year"))
	assert.Equal(t, []string{"114", "109", "<null>"}, strs(t, out.Titles, "duration"))

	// m3 has an empty genre list and contributes no link rows.
	assert.Equal(t, []string{"1", "2"}, strs(t, out.Genres, "id"))
	assert.Equal(t, []string{"Drama", "Comedy"}, strs(t, out.Genres, "genre"))
	assert.Equal(t, []string{"movie_id", "genre_id"}, out.GenreLinks.Columns())
	assert.Equal(t, []string{"m1", "m1", "m2"}, strs(t, out.GenreLinks, "movie_id"))
	assert.Equal(t, []string{"1", "2", "1"}, strs(t, out.GenreLinks, "genre_id"))

	// m2's country list is empty.
	assert.Equal(t, []string{"US", "GB"}, strs(t, out.Countries, "production_country"))
	assert.Equal(t, []string{"m1", "m3", "m3"}, strs(t, out.CountryLinks, "movie_id"))
	assert.Equal(t, []string{"1", "1", "2"}, strs(t, out.CountryLinks, "production_country_id"))

	assert.Zero(t, out.Dropped["genres"])
	assert.Zero(t, out.Dropped["production_countries"])
}

func TestBuildTitles_MissingRankingColumn(t *testing.T) {
	t.Parallel()

	titles, byTitle, byYear := movieFixtures(t)
	noScore, err := byYear.Drop("SCORE")
	require.NoError(t, err)

	_, err = BuildTitles(titles, byTitle, noScore, moviePlan(t))
	requireSchemaError(t, err)
}

func TestBuildTitles_NumericTitlesStillJoin(t *testing.T) {
	t.Parallel()

	titles, byTitle, byYear := movieFixtures(t)
	byYear = dataset.MustNew(
		dataset.IntColumn("index", 0),
		dataset.IntColumn("TITLE", 1917),
		dataset.IntColumn("RELEASE_YEAR", 2019),
		dataset.StringColumn("SCORE", "8.2"),
		dataset.StringColumn("MAIN_GENRE", "war"),
		dataset.StringColumn("MAIN_PRODUCTION", "GB"),
	)
	out, err := BuildTitles(titles, byTitle, byYear, moviePlan(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "N", "N"}, strs(t, out.Titles, "is_movie_best_in_release_year"))
}
