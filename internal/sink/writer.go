// Package sink appends datasets to catalog tables through a
// storage.Repository. It creates no schema and removes no duplicates: rows are
// matched to target columns by name, converted to the column's catalog kind,
// and streamed in batches through storage.LoadBatches. Every batch of a table
// goes through one storage.Session, which is committed after the last batch.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"catalogetl/internal/dataset"
	"catalogetl/internal/metrics"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
)

// Config controls batching and attribution.
type Config struct {
	// BatchSize is the number of rows per Session.CopyFrom call. Zero or negative
	// writes each table in a single batch.
	BatchSize int
	// Job labels metrics.
	Job    string
	Logger *slog.Logger
}

// Writer is the persistence sink.
type Writer struct {
	repo storage.Repository
	cfg  Config
}

// NewWriter returns a Writer that appends through repo.
func NewWriter(repo storage.Repository, cfg Config) *Writer {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{repo: repo, cfg: cfg}
}

// NewDiscard returns a Writer that converts every row as a real write would
// and then drops it. It backs --dry-run.
func NewDiscard(cfg Config) *Writer {
	return NewWriter(discard{}, cfg)
}

// Write appends every row of ds to table in one session and returns the
// number of rows the store reported as written.
//
// A column of ds that the catalog table does not accept, a list-typed column,
// or a value that cannot be converted to its column's kind is a
// *dataset.SchemaError and nothing is written. Repository failures are
// returned as *StoreWriteError after the session is rolled back, so a failed
// table keeps none of its rows.
func (w *Writer) Write(ctx context.Context, ds *dataset.Dataset, table string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &StoreWriteError{Table: table, Err: err}
	}
	target, ok := schema.Lookup(table)
	if !ok {
		return 0, &dataset.SchemaError{Op: "write", Msg: fmt.Sprintf("unknown table %q", table)}
	}
	columns := ds.Columns()
	kinds, err := columnKinds(ds, target)
	if err != nil {
		return 0, err
	}
	rows, err := convertRows(ds, columns, kinds, table)
	if err != nil {
		return 0, err
	}

	batch := w.cfg.BatchSize
	if batch <= 0 {
		batch = max(len(rows), 1)
	}

	log := w.cfg.Logger.With("table", table)
	sess, err := w.repo.Begin(ctx, table, columns)
	if err != nil {
		return 0, &StoreWriteError{Table: table, Err: err}
	}

	var batches int64
	copyFn := func(ctx context.Context, _ []string, batch [][]any) (int64, error) {
		batches++
		return sess.CopyFrom(ctx, batch)
	}
	copied, err := load(ctx, log, columns, rows, batch, copyFn)
	metrics.RecordBatches(w.cfg.Job, batches)
	if err != nil {
		// The write context may already be cancelled.
		if rbErr := sess.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Warn("rollback failed", "err", rbErr)
		}
		return 0, &StoreWriteError{Table: table, Copied: copied, Err: err}
	}
	if err := sess.Commit(ctx); err != nil {
		return 0, &StoreWriteError{Table: table, Copied: copied, Err: err}
	}

	metrics.RecordTableRows(w.cfg.Job, table, copied)
	log.Info("table written", "rows", copied, "batches", batches)
	return copied, nil
}

// load feeds rows to storage.LoadBatches from a producer goroutine.
func load(ctx context.Context, log *slog.Logger, columns []string, rows [][]any, batch int, copyFn storage.CopyFn) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan []any, min(batch, 1024))
	go func() {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return storage.LoadBatches(ctx, log, columns, in, batch, copyFn)
}

// columnKinds resolves the catalog kind of every dataset column.
func columnKinds(ds *dataset.Dataset, target schema.Table) ([]string, error) {
	accepted := make(map[string]schema.Column)
	for _, c := range target.InsertColumns() {
		accepted[c.Name] = c
	}
	columns := ds.Columns()
	kinds := make([]string, len(columns))
	for i, name := range columns {
		typ, _ := ds.Type(name)
		if typ.IsList() {
			return nil, &dataset.SchemaError{Op: "write", Column: name,
				Msg: fmt.Sprintf("%s column cannot be stored in %s", typ, target.Name)}
		}
		col, ok := accepted[name]
		if !ok {
			return nil, &dataset.SchemaError{Op: "write", Column: name,
				Msg: fmt.Sprintf("table %s has no writable column with this name", target.Name)}
		}
		kinds[i] = col.Kind
	}
	return kinds, nil
}

func convertRows(ds *dataset.Dataset, columns, kinds []string, table string) ([][]any, error) {
	rows := make([][]any, ds.Len())
	for r := range rows {
		cells := ds.Row(r)
		row := make([]any, len(cells))
		for i, v := range cells {
			out, err := convert(v, kinds[i])
			if err != nil {
				return nil, &dataset.SchemaError{Op: "write", Column: columns[i],
					Msg: fmt.Sprintf("row %d of %s: %v", r, table, err)}
			}
			row[i] = out
		}
		rows[r] = row
	}
	return rows, nil
}

// convert maps a cell to the Go value drivers expect for kind. Null is nil.
func convert(v dataset.Value, kind string) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch kind {
	case schema.KindText:
		return v.Render(), nil
	case schema.KindInt:
		switch v.Kind() {
		case dataset.TypeInt:
			return v.AsInt(), nil
		case dataset.TypeFloat:
			f := v.AsFloat()
			if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fmt.Errorf("%v is not an integer", f)
			}
			return int64(f), nil
		case dataset.TypeString:
			n, err := strconv.ParseInt(v.AsString(), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", v.AsString())
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("cannot store %s value as %s", v.Kind(), kind)
}

// discard accepts every batch without storing it.
type discard struct{}

func (discard) Begin(context.Context, string, []string) (storage.Session, error) {
	return discard{}, nil
}
func (discard) Exec(context.Context, string) error { return nil }
func (discard) Close()                             {}

func (discard) CopyFrom(_ context.Context, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}
func (discard) Commit(context.Context) error   { return nil }
func (discard) Rollback(context.Context) error { return nil }
