package schema

// Target table names.
const (
	TableMovie                      = "movie"
	TableMovieGenre                 = "movie_genre"
	TableMovieGenreLink             = "movie_genre_link"
	TableMovieProductionCountry     = "movie_production_country"
	TableMovieProductionCountryLink = "movie_production_country_link"
	TableShow                       = "show"
	TableShowGenre                  = "show_genre"
	TableShowProductionCountry      = "show_production_country"
	TableShowGenreLink              = "show_genre_link"
	TableShowProductionCountryLink  = "show_production_country_link"
	TableCredit                     = "credit"
	TableActor                      = "actor"
	TableRole                       = "role"
	TableMovieActor                 = "movie_actor"
	TableShowActor                  = "show_actor"
)

func pk(name, kind string) Column {
	return Column{Name: name, Kind: kind, PrimaryKey: true}
}

func serial() Column {
	return Column{Name: "id", Kind: KindInt, PrimaryKey: true, Identity: true}
}

func text(name string, nullable bool) Column {
	return Column{Name: name, Kind: KindText, Nullable: nullable}
}

func integer(name string, nullable bool) Column {
	return Column{Name: name, Kind: KindInt, Nullable: nullable}
}

func fk(name, kind, table string, nullable bool) Column {
	return Column{Name: name, Kind: kind, Nullable: nullable, References: &Ref{Table: table, Column: "id"}}
}

func titleTable(name string, show bool) Table {
	cols := []Column{
		pk("id", KindText),
		text("title", !show),
		text("type", false),
		text("age_certification", true),
		integer("runtime", false),
	}
	if show {
		cols = append(cols, integer("seasons", false), integer("number_of_seasons", true))
	}
	cols = append(cols,
		text("imdb_id", true),
		text("imdb_score", true),
		integer("imdb_votes", true),
		text("release_year", true),
		integer("duration", true),
		text("is_movie_best_in_release_year", false),
		text("main_genre", true),
		text("main_production", true),
	)
	return Table{Name: name, Columns: cols}
}

func dimension(name, entity string) Table {
	return Table{Name: name, Columns: []Column{pk("id", KindInt), text(entity, false)}}
}

func link(name, owner, ownerTable, valueCol, valueTable string) Table {
	return Table{Name: name, Columns: []Column{
		serial(),
		fk(owner, KindText, ownerTable, true),
		fk(valueCol, KindInt, valueTable, true),
	}}
}

func actorLink(name, owner, ownerTable string) Table {
	return Table{Name: name, Columns: []Column{
		serial(),
		fk(owner, KindText, ownerTable, false),
		fk("name", KindInt, TableActor, false),
		fk("role", KindInt, TableRole, false),
	}}
}

// Catalog returns every target table in write order: each table comes after
// every table it references.
func Catalog() []Table {
	return []Table{
		titleTable(TableMovie, false),
		dimension(TableMovieGenre, "genre"),
		link(TableMovieGenreLink, "movie_id", TableMovie, "genre_id", TableMovieGenre),
		dimension(TableMovieProductionCountry, "production_country"),
		link(TableMovieProductionCountryLink, "movie_id", TableMovie, "production_country_id", TableMovieProductionCountry),
		titleTable(TableShow, true),
		dimension(TableShowGenre, "genre"),
		dimension(TableShowProductionCountry, "production_country"),
		link(TableShowGenreLink, "show_id", TableShow, "genre_id", TableShowGenre),
		link(TableShowProductionCountryLink, "show_id", TableShow, "production_country_id", TableShowProductionCountry),
		{Name: TableCredit, Columns: []Column{pk("id", KindInt), text("character", true)}},
		dimension(TableActor, "name"),
		dimension(TableRole, "role"),
		actorLink(TableMovieActor, "movie_id", TableMovie),
		actorLink(TableShowActor, "show_id", TableShow),
	}
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Table, bool) {
	for _, t := range Catalog() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
