package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"catalogetl/internal/config"
	"catalogetl/internal/dataset"
	"catalogetl/internal/datasource"
	"catalogetl/internal/datasource/httpds"
	"catalogetl/internal/metrics"
	"catalogetl/internal/multivalue"
	"catalogetl/internal/schema"
	"catalogetl/internal/sink"
)

// Config wires a Runner.
type Config struct {
	Pipeline config.Pipeline

	// Writer receives every output table. Use sink.NewDiscard for dry runs.
	Writer *sink.Writer

	Logger *slog.Logger
	Clock  clockwork.Clock
}

// Runner executes one full run: load, join, normalize and persist.
type Runner struct {
	p     config.Pipeline
	plans []DomainPlan
	w     *sink.Writer
	log   *slog.Logger
	clock clockwork.Clock
	runID string
	http  *httpds.Client
}

// New returns a Runner. A nil Logger discards output and a nil Clock uses the
// real clock.
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	id := uuid.NewString()
	h := cfg.Pipeline.Sources.HTTP
	return &Runner{
		p:     cfg.Pipeline,
		plans: Plans(cfg.Pipeline),
		w:     cfg.Writer,
		log:   cfg.Logger.With("job", cfg.Pipeline.Job, "run_id", id),
		clock: cfg.Clock,
		runID: id,
		http: httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(h.TimeoutSeconds) * time.Second,
			MaxRetries:         h.MaxRetries,
			InsecureSkipVerify: h.InsecureSkipVerify,
		}),
	}
}

// RunID identifies this run in logs and the summary.
func (r *Runner) RunID() string { return r.runID }

// Run builds every output table and writes them in catalog order. Tables
// written before a failure stay written. The returned summary is non-nil
// even on error and describes what was done up to the failure.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.clock.Now()
	sum := &Summary{RunID: r.runID, Job: r.p.Job, Dropped: map[string]int{}}
	defer func() { sum.Elapsed = r.clock.Since(start) }()

	outputs, err := r.build(ctx, sum)
	if err != nil {
		return sum, err
	}
	err = r.step("persist", func() error { return r.persist(ctx, outputs, sum) })
	return sum, err
}

// build runs every transform and returns the output tables by name.
func (r *Runner) build(ctx context.Context, sum *Summary) (map[string]*dataset.Dataset, error) {
	outputs := map[string]*dataset.Dataset{}

	var splits []*dataset.Dataset
	err := r.step("load_titles", func() error {
		titles, err := r.load(ctx, sum, r.p.Path(r.p.Sources.Titles))
		if err != nil {
			return err
		}
		if titles, err = parseTitleLists(titles); err != nil {
			return err
		}
		types := make([]string, len(r.plans))
		for i, pl := range r.plans {
			types[i] = pl.Type
		}
		splits, err = titles.SplitBy(colType, types...)
		return err
	})
	if err != nil {
		return nil, err
	}

	domains := make([]*TitleTables, len(r.plans))
	for i, pl := range r.plans {
		err := r.step("titles_"+pl.Name, func() error {
			var byTitle, byYear *dataset.Dataset
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) { byTitle, err = r.open(gctx, pl.BestByTitle); return err })
			g.Go(func() (err error) { byYear, err = r.open(gctx, pl.BestByYear); return err })
			if err := g.Wait(); err != nil {
				return err
			}
			r.record(sum, pl.BestByTitle, byTitle)
			r.record(sum, pl.BestByYear, byYear)
			tt, err := BuildTitles(splits[i], byTitle, byYear, pl)
			if err != nil {
				return fmt.Errorf("%s titles: %w", pl.Name, err)
			}
			domains[i] = tt
			return nil
		})
		if err != nil {
			return nil, err
		}
		tt := domains[i]
		outputs[pl.Table] = tt.Titles
		outputs[pl.GenreTable] = tt.Genres
		outputs[pl.GenreLinkTable] = tt.GenreLinks
		outputs[pl.CountryTable] = tt.Countries
		outputs[pl.CountryLinkTable] = tt.CountryLinks
		for col, n := range tt.Dropped {
			r.dropped(sum, pl.Name+"."+col, n)
		}
	}
	r.warnSharedIDs(domains)

	err = r.step("credits", func() error {
		raw, err := r.load(ctx, sum, r.p.Path(r.p.Sources.Credits))
		if err != nil {
			return err
		}
		if raw, err = parseCreditNames(raw); err != nil {
			return err
		}
		ct, err := BuildCredits(raw)
		if err != nil {
			return fmt.Errorf("credits: %w", err)
		}
		outputs[schema.TableCredit] = ct.Credit
		outputs[schema.TableActor] = ct.Actors
		outputs[schema.TableRole] = ct.Roles
		for col, n := range ct.Dropped {
			r.dropped(sum, "credit."+col, n)
		}
		for _, tt := range domains {
			links, err := ActorLinks(ct.ActorRoles, tt.Titles, tt.Plan.KeyColumn)
			if err != nil {
				return fmt.Errorf("%s actors: %w", tt.Plan.Name, err)
			}
			outputs[tt.Plan.ActorLinkTable] = links
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

// persist writes outputs in catalog order, which puts every table after the
// tables it references.
func (r *Runner) persist(ctx context.Context, outputs map[string]*dataset.Dataset, sum *Summary) error {
	for _, t := range schema.Catalog() {
		ds, ok := outputs[t.Name]
		if !ok {
			continue
		}
		n, err := r.w.Write(ctx, ds, t.Name)
		sum.Tables = append(sum.Tables, TableCount{Table: t.Name, Rows: n})
		if err != nil {
			return err
		}
	}
	return nil
}

// load reads one source and records its provenance.
func (r *Runner) load(ctx context.Context, sum *Summary, path string) (*dataset.Dataset, error) {
	ds, err := r.open(ctx, path)
	if err != nil {
		return nil, err
	}
	r.record(sum, path, ds)
	return ds, nil
}

// open reads one source, a path or URL.
func (r *Runner) open(ctx context.Context, path string) (*dataset.Dataset, error) {
	src := datasource.New(path, r.http)
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &dataset.IOError{Path: src.Location(), Err: err}
	}
	defer rc.Close()
	return dataset.Read(src.Location(), rc, dataset.LoadOptions{CSV: r.p.Parser.CSVOptions()})
}

func (r *Runner) record(sum *Summary, path string, ds *dataset.Dataset) {
	src := ds.Source()
	sum.Sources = append(sum.Sources, SourceInfo{
		Path:        path,
		Rows:        ds.Len(),
		Bytes:       src.Bytes,
		Fingerprint: src.Fingerprint,
	})
	metrics.RecordRow(r.p.Job, "loaded", int64(ds.Len()))
	r.log.Debug("source loaded", "path", path, "rows", ds.Len(), "fingerprint", fmt.Sprintf("%016x", src.Fingerprint))
}

// step times fn and records it as a run step.
func (r *Runner) step(name string, fn func() error) error {
	start := r.clock.Now()
	err := fn()
	d := r.clock.Since(start)
	metrics.RecordStep(r.p.Job, name, err, d)
	if err != nil {
		r.log.Error("step failed", "step", name, "err", err)
		return err
	}
	r.log.Debug("step done", "step", name, "took", d)
	return nil
}

func (r *Runner) dropped(sum *Summary, column string, n int) {
	if n == 0 {
		return
	}
	sum.Dropped[column] += n
	metrics.RecordDroppedTokens(r.p.Job, column, int64(n))
	r.log.Warn("tokens without id dropped", "column", column, "count", n)
}

// warnSharedIDs logs title ids that appear in more than one domain. Their
// credits are linked from every domain that has them.
func (r *Runner) warnSharedIDs(domains []*TitleTables) {
	owner := map[string]string{}
	for _, tt := range domains {
		c, ok := tt.Titles.Column(colID)
		if !ok {
			continue
		}
		var shared []string
		for _, v := range c.Values {
			if v.IsNull() {
				continue
			}
			id := v.Render()
			if prev, dup := owner[id]; dup && prev != tt.Plan.Name {
				shared = append(shared, id)
				continue
			}
			owner[id] = tt.Plan.Name
		}
		if len(shared) > 0 {
			slices.Sort(shared)
			r.log.Warn("title ids present in more than one domain",
				"domain", tt.Plan.Name, "count", len(shared), "ids", shared[:min(len(shared), 10)])
		}
	}
}

// parseTitleLists lowercases the titles header and parses the list-literal
// columns once, at load time.
func parseTitleLists(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out, err := ds.LowercaseColumns()
	if err != nil {
		return nil, err
	}
	for _, col := range []string{colGenres, colProductionCountries} {
		if out, err = multivalue.ParseListColumn(out, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseCreditNames turns the single-valued name and role cells into one-token
// lists.
func parseCreditNames(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out, err := ds.LowercaseColumns()
	if err != nil {
		return nil, err
	}
	for _, col := range []string{colName, colRole} {
		if out, err = multivalue.ScalarListColumn(out, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}
