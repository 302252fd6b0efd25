package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"catalogetl/internal/schema"
)

// IssueSeverity grades an Issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but the run continues.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one finding of ValidatePipeline. Path is a dotted path into the
// config, e.g. "storage.kind" or "domains[1].best_by_year".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownStores are the storage kinds built into the binary.
var knownStores = []string{"postgres", "mysql", "mssql", "sqlite"}

// lint accumulates issues.
type lint []Issue

func (l *lint) errorf(path, format string, a ...any) {
	*l = append(*l, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
}

func (l *lint) warnf(path, format string, a ...any) {
	*l = append(*l, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
}

// required reports an error at path when v is blank and returns whether v
// was present.
func (l *lint) required(path, v, what string) bool {
	if strings.TrimSpace(v) == "" {
		l.errorf(path, "%s must not be empty", what)
		return false
	}
	return true
}

// ValidatePipeline checks p without modifying it. Callers decide what to do
// with warnings.
func ValidatePipeline(p Pipeline) []Issue {
	var l lint
	l.required("job", p.Job, "job")
	l.sources(p.Sources)
	l.parser(p.Parser)
	l.storage(p.Storage)
	l.domains(p.Domains)
	l.paths(p)
	l.metrics(p.Metrics)
	return l
}

func (l *lint) sources(s Sources) {
	l.required("sources.titles", s.Titles, "titles source path")
	l.required("sources.credits", s.Credits, "credits source path")
	if s.HTTP.TimeoutSeconds < 0 {
		l.errorf("sources.http.timeout_seconds", "timeout_seconds must be >= 0, got %d", s.HTTP.TimeoutSeconds)
	}
	if s.HTTP.MaxRetries < 0 {
		l.errorf("sources.http.max_retries", "max_retries must be >= 0, got %d", s.HTTP.MaxRetries)
	}
	if s.HTTP.InsecureSkipVerify {
		l.warnf("sources.http.insecure_skip_verify", "TLS certificates of URL sources will not be verified")
	}
}

func (l *lint) parser(p Parser) {
	if p.Kind != "" && p.Kind != "csv" {
		l.errorf("parser.kind", "unsupported parser kind %q; only csv is implemented", p.Kind)
		return
	}
	if comma := p.Options.comma(); utf8.RuneCountInString(comma) != 1 {
		l.errorf("parser.options.comma", "comma must be a single character, got %q", comma)
	}
}

func (l *lint) storage(s Storage) {
	if !l.required("storage.kind", s.Kind, "storage.kind") {
		return
	}
	known := false
	for _, k := range knownStores {
		known = known || k == s.Kind
	}
	if !known {
		l.warnf("storage.kind", "unknown storage kind %q; ensure a matching backend is registered", s.Kind)
	}
	l.required("storage.dsn", s.DSN, "storage.dsn")
	if s.BatchSize <= 0 {
		l.warnf("storage.batch_size", "batch_size=%d; each table will be written in a single batch", s.BatchSize)
	}
}

func (l *lint) domains(ds []Domain) {
	if len(ds) == 0 {
		l.errorf("domains", "at least one title domain is required")
		return
	}

	seenType := map[string]int{}
	for i, d := range ds {
		at := func(field string) string { return fmt.Sprintf("domains[%d].%s", i, field) }

		if l.required(at("type"), d.Type, "type") {
			if j, dup := seenType[d.Type]; dup {
				l.errorf(at("type"), "type %q is already handled by domains[%d]", d.Type, j)
			} else {
				seenType[d.Type] = i
			}
		}
		l.required(at("key_column"), d.KeyColumn, "key_column")
		l.required(at("best_by_title"), d.BestByTitle, "ranking source path")
		l.required(at("best_by_year"), d.BestByYear, "ranking source path")

		title, ok := schema.Lookup(d.Table)
		if !ok {
			l.errorf(at("table"), "unknown table %q", d.Table)
		}
		for _, ref := range [][2]string{
			{"genre_table", d.GenreTable},
			{"genre_link_table", d.GenreLinkTable},
			{"country_table", d.CountryTable},
			{"country_link_table", d.CountryLinkTable},
			{"actor_link_table", d.ActorLinkTable},
		} {
			if _, found := schema.Lookup(ref[1]); !found {
				l.errorf(at(ref[0]), "unknown table %q", ref[1])
			}
		}
		if !ok {
			continue
		}
		for src, dst := range d.Rename {
			if _, has := title.Column(dst); !has {
				l.warnf(at("rename."+src), "target %q is not a column of %s", dst, d.Table)
			}
		}
	}
}

// paths warns when two sources resolve to the same file. Each ranking role
// is expected to have its own file.
func (l *lint) paths(p Pipeline) {
	owner := map[string]string{}
	claim := func(path, file string) {
		if strings.TrimSpace(file) == "" {
			return
		}
		resolved := p.Path(file)
		if prev, dup := owner[resolved]; dup {
			l.warnf(path, "%q is also used by %s", file, prev)
			return
		}
		owner[resolved] = path
	}
	claim("sources.titles", p.Sources.Titles)
	claim("sources.credits", p.Sources.Credits)
	for i, d := range p.Domains {
		claim(fmt.Sprintf("domains[%d].best_by_title", i), d.BestByTitle)
		claim(fmt.Sprintf("domains[%d].best_by_year", i), d.BestByYear)
	}
}

func (l *lint) metrics(m Metrics) {
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			l.warnf("metrics.pushgateway_url", "pushgateway_url is empty; http://localhost:9091 will be used")
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			l.errorf("metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		l.warnf("metrics.backend", "unknown metrics backend %q; metrics will be disabled", m.Backend)
	}
}
