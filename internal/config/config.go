// Package config defines the JSON-serializable configuration model for the
// catalog ETL run. Field names in Go mirror the JSON structure used in
// pipeline files under configs/pipelines/*.json.
//
// Default returns the complete built-in Netflix plan, so a pipeline file only
// needs to override what differs (paths, DSN, batch size). Environment
// variables are applied last and win over the file.
//
// Example (trimmed):
//
//	{
//	  "job":      "netflix",
//	  "data_dir": "data",
//	  "sources":  { "titles": "raw_titles.csv", "credits": "raw_credits.csv" },
//	  "storage":  { "kind": "postgres", "dsn": "postgres://...", "batch_size": 5000 },
//	  "metrics":  { "backend": "pushgateway" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pcsv "catalogetl/internal/parser/csv"
	"catalogetl/internal/schema"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines for the run.
	Job string `json:"job"`

	// DataDir is the base directory for relative source paths.
	DataDir string `json:"data_dir"`

	Sources Sources  `json:"sources"`
	Parser  Parser   `json:"parser"`
	Storage Storage  `json:"storage"`
	Domains []Domain `json:"domains"`
	Metrics Metrics  `json:"metrics"`
}

// Sources names the shared input files. Ranking files belong to a Domain.
// Any source may be an http(s) URL instead of a path.
type Sources struct {
	Titles  string `json:"titles"`
	Credits string `json:"credits"`

	HTTP HTTP `json:"http"`
}

// HTTP tunes downloads of URL sources.
type HTTP struct {
	TimeoutSeconds     int  `json:"timeout_seconds"`
	MaxRetries         int  `json:"max_retries"`
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// Parser selects how source files are read.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	Options Options `json:"options"`
}

// Options are the CSV reader settings.
type Options struct {
	// Comma is the field delimiter, one character. Empty means ",".
	Comma string `json:"comma,omitempty"`
	// TrimSpace trims cells and headers.
	TrimSpace bool `json:"trim_space,omitempty"`
	// HeaderMap renames source headers before any other step sees them.
	HeaderMap map[string]string `json:"header_map,omitempty"`
}

// comma returns the delimiter, defaulting to ','.
func (o Options) comma() string {
	if o.Comma == "" {
		return ","
	}
	return o.Comma
}

// CSVOptions returns the parser settings. Validation guarantees a
// single-character comma; extra characters are ignored here.
func (p Parser) CSVOptions() pcsv.Options {
	comma, _ := utf8.DecodeRuneInString(p.Options.comma())
	o := pcsv.Options{Comma: comma, TrimSpace: p.Options.TrimSpace}
	if len(p.Options.HeaderMap) > 0 {
		o.HeaderMap = p.Options.HeaderMap
	}
	return o
}

// Storage selects the repository the sink appends to.
type Storage struct {
	// Kind selects the backend: postgres, mssql, mysql or sqlite.
	Kind string `json:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// CreateSchema runs CREATE TABLE IF NOT EXISTS for the catalog before
	// writing.
	CreateSchema bool `json:"create_schema"`

	// BatchSize is the number of rows per copied batch. Zero or negative
	// writes each table in one batch.
	BatchSize int `json:"batch_size"`
}

// Domain describes one title domain (movies or shows): its ranking sources,
// the column reconciliation applied after the ranking joins, and its output
// tables.
type Domain struct {
	// Name is the domain's short name, e.g. "movie".
	Name string `json:"name"`

	// Type is the value of the titles' type column selecting this domain.
	Type string `json:"type"`

	// Table is the title table; KeyColumn names the title id in link tables.
	Table     string `json:"table"`
	KeyColumn string `json:"key_column"`

	// BestByTitle and BestByYear are the ranking sources, joined on title in
	// that order.
	BestByTitle string `json:"best_by_title"`
	BestByYear  string `json:"best_by_year"`

	// Drop lists the suffixed duplicates removed after the joins; Rename maps
	// the survivors to canonical names. Renames are simultaneous.
	Drop   []string          `json:"drop"`
	Rename map[string]string `json:"rename"`

	GenreTable       string `json:"genre_table"`
	GenreLinkTable   string `json:"genre_link_table"`
	CountryTable     string `json:"country_table"`
	CountryLinkTable string `json:"country_link_table"`
	ActorLinkTable   string `json:"actor_link_table"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is one of "", "none", "pushgateway", "datadog".
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Default returns the built-in plan for the Netflix catalog files.
func Default() Pipeline {
	return Pipeline{
		Job:     "netflix",
		DataDir: ".",
		Sources: Sources{
			Titles:  "raw_titles.csv",
			Credits: "raw_credits.csv",
			HTTP:    HTTP{TimeoutSeconds: 60, MaxRetries: 3},
		},
		Parser:  Parser{Kind: "csv"},
		Storage: Storage{Kind: "postgres", BatchSize: 5000},
		Domains: []Domain{
			{
				Name:        "movie",
				Type:        "MOVIE",
				Table:       schema.TableMovie,
				KeyColumn:   "movie_id",
				BestByTitle: "Best Movies Netflix.csv",
				BestByYear:  "Best Movie by Year Netflix.csv",
				Drop: []string{
					"index_x", "index_y", "release_year_x", "score_x", "main_genre_x",
					"main_production_x", "number_of_votes", "score_y", "seasons", "index",
				},
				// release_year_x (from the titles) is dropped and release_year
				// comes from the by-title ranking, so an unranked movie is
				// written with a null release year.
				Rename: map[string]string{
					"main_genre_y":      "main_genre",
					"main_production_y": "main_production",
					"release_year_y":    "release_year",
					"release_year":      "is_movie_best_in_release_year",
				},
				GenreTable:       schema.TableMovieGenre,
				GenreLinkTable:   schema.TableMovieGenreLink,
				CountryTable:     schema.TableMovieProductionCountry,
				CountryLinkTable: schema.TableMovieProductionCountryLink,
				ActorLinkTable:   schema.TableMovieActor,
			},
			{
				Name:        "show",
				Type:        "SHOW",
				Table:       schema.TableShow,
				KeyColumn:   "show_id",
				BestByTitle: "Best Shows Netflix.csv",
				BestByYear:  "Best Show by Year Netflix.csv",
				Drop: []string{
					"index_x", "index_y", "score_x", "main_genre_x", "main_production_x",
					"score_y", "index", "release_year_y", "number_of_votes", "number_of_seasons_x",
				},
				Rename: map[string]string{
					"main_genre_y":        "main_genre",
					"main_production_y":   "main_production",
					"number_of_seasons_y": "number_of_seasons",
					"release_year":        "is_movie_best_in_release_year",
					"release_year_x":      "release_year",
				},
				GenreTable:       schema.TableShowGenre,
				GenreLinkTable:   schema.TableShowGenreLink,
				CountryTable:     schema.TableShowProductionCountry,
				CountryLinkTable: schema.TableShowProductionCountryLink,
				ActorLinkTable:   schema.TableShowActor,
			},
		},
	}
}

// Load decodes the pipeline file at path over Default. A file that sets
// "domains" replaces the built-in domains entirely; one that omits it keeps
// them.
func Load(path string) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(raw)
}

// Decode is Load without the file read.
func Decode(raw []byte) (Pipeline, error) {
	p := Default()
	defaults := p.Domains
	p.Domains = nil

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	if p.Domains == nil {
		p.Domains = defaults
	}
	return p, nil
}

// envOverrides lists the variables that override file settings. Unset or
// empty variables leave the file value alone.
type envOverrides struct {
	DataDir        string `env:"CATALOGETL_DATA_DIR"`
	StorageKind    string `env:"CATALOGETL_STORAGE_KIND"`
	DSN            string `env:"CATALOGETL_DSN"`
	MetricsBackend string `env:"METRICS_BACKEND"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	DatadogAddr    string `env:"DD_AGENT_ADDR"`
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set are not overwritten, and missing files are ignored.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides p with environment variables. A nil environ reads the
// process environment.
func ApplyEnv(p *Pipeline, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.DataDir, o.DataDir)
	set(&p.Storage.Kind, o.StorageKind)
	set(&p.Storage.DSN, o.DSN)
	set(&p.Metrics.Backend, o.MetricsBackend)
	set(&p.Metrics.PushgatewayURL, o.PushgatewayURL)
	set(&p.Metrics.DatadogAddr, o.DatadogAddr)
	return nil
}

// Path resolves a source path against DataDir. Absolute paths and URLs are
// returned unchanged.
func (p Pipeline) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) || p.DataDir == "" || strings.Contains(rel, "://") {
		return rel
	}
	return filepath.Join(p.DataDir, rel)
}
