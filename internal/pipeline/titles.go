package pipeline

import (
	"catalogetl/internal/dataset"
	"catalogetl/internal/multivalue"
)

// Columns shared by the raw titles and ranking sources.
const (
	colID                  = "id"
	colTitle               = "title"
	colType                = "type"
	colReleaseYear         = "release_year"
	colGenres              = "genres"
	colProductionCountries = "production_countries"
)

// TitleTables holds every table derived from one title domain.
type TitleTables struct {
	Plan DomainPlan

	// Titles is the reconciled title table without its list columns.
	Titles *dataset.Dataset

	Genres       *dataset.Dataset // (id, genre)
	GenreLinks   *dataset.Dataset // (<key>, genre_id)
	Countries    *dataset.Dataset // (id, production_country)
	CountryLinks *dataset.Dataset // (<key>, production_country_id)

	// Dropped counts tokens per list column that had no id.
	Dropped map[string]int
}

// BuildTitles enriches titles (one domain's rows, lowercase headers) with the
// two ranking sources and normalizes its genre and country lists.
//
// Both rankings are left joined on title, by-title first. After the joins
// empty strings become null, and the by-year release_year column becomes a
// Y/N flag recording whether the title was best of its year. Reconcile then
// resolves the suffixed duplicates.
func BuildTitles(titles, byTitle, byYear *dataset.Dataset, plan DomainPlan) (*TitleTables, error) {
	ranked, err := joinRankings(titles, byTitle, byYear)
	if err != nil {
		return nil, err
	}
	flagged, err := ranked.NullifyEmpty().FlagPresence(colReleaseYear)
	if err != nil {
		return nil, err
	}
	rec, err := Reconcile(flagged, plan)
	if err != nil {
		return nil, err
	}

	out := &TitleTables{Plan: plan, Dropped: map[string]int{}}
	genres, err := normalizeList(rec, colGenres, "genre", plan.KeyColumn, "genre_id")
	if err != nil {
		return nil, err
	}
	out.Genres, out.GenreLinks = genres.Dimension, genres.Link
	out.Dropped[colGenres] = genres.Stats.Dropped

	countries, err := normalizeList(rec, colProductionCountries, "production_country", plan.KeyColumn, "production_country_id")
	if err != nil {
		return nil, err
	}
	out.Countries, out.CountryLinks = countries.Dimension, countries.Link
	out.Dropped[colProductionCountries] = countries.Stats.Dropped

	if out.Titles, err = rec.Drop(colGenres, colProductionCountries); err != nil {
		return nil, err
	}
	return out, nil
}

func joinRankings(titles, byTitle, byYear *dataset.Dataset) (*dataset.Dataset, error) {
	base, err := titleKey(titles)
	if err != nil {
		return nil, err
	}
	for _, r := range []*dataset.Dataset{byTitle, byYear} {
		lc, err := r.LowercaseColumns()
		if err != nil {
			return nil, err
		}
		if lc, err = titleKey(lc); err != nil {
			return nil, err
		}
		if base, err = base.Join(lc, colTitle, dataset.Left); err != nil {
			return nil, err
		}
	}
	return base, nil
}

// titleKey makes the title join key a string column regardless of how the
// loader typed it.
func titleKey(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if typ, ok := ds.Type(colTitle); ok && typ == dataset.TypeString {
		return ds, nil
	}
	return ds.CoerceToString(colTitle)
}

// normalizeList explodes a list-literal column into its dimension table and
// a link table renamed to (key, idColumn).
func normalizeList(ds *dataset.Dataset, column, entity, key, idColumn string) (*multivalue.Result, error) {
	res, err := multivalue.Normalize(ds, column, multivalue.Options{
		KeyColumns: []string{colID},
		Entity:     entity,
	})
	if err != nil {
		return nil, err
	}
	if res.Link, err = res.Link.Rename(map[string]string{colID: key, column: idColumn}); err != nil {
		return nil, err
	}
	return res, nil
}
