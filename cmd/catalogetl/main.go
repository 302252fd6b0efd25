// Command catalogetl loads the Netflix catalog CSV files, normalizes them
// into title, dimension and link tables, and appends every table to the
// configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"catalogetl/internal/config"
	"catalogetl/internal/dataset"
	"catalogetl/internal/logger"
	"catalogetl/internal/pipeline"
	"catalogetl/internal/schema"
	"catalogetl/internal/sink"
	"catalogetl/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "catalogetl/internal/storage/all"
)

// options holds the command line. Empty strings leave the config value alone.
type options struct {
	configPath     string
	verbose        bool
	validate       bool
	dryRun         bool
	createSchema   bool
	storageKind    string
	dsn            string
	dataDir        string
	metricsBackend string
	pushgatewayURL string
}

// errRunFailed is returned by run after the failure has been logged.
var errRunFailed = errors.New("run failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.configPath, "config", "", "pipeline config JSON path (built-in Netflix plan when empty)")
	flag.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	flag.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&o.dryRun, "dry-run", false, "run every transform but write nothing; print the summary")
	flag.BoolVar(&o.createSchema, "create-schema", false, "create missing catalog tables before writing")
	flag.StringVar(&o.storageKind, "storage", "", "storage backend: "+strings.Join(storage.ListKinds(), ", ")+" (or set CATALOGETL_STORAGE_KIND)")
	flag.StringVar(&o.dsn, "dsn", "", "storage connection string (or set CATALOGETL_DSN)")
	flag.StringVar(&o.dataDir, "data-dir", "", "directory holding the source CSV files (or set CATALOGETL_DATA_DIR)")
	flag.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog, none (or set METRICS_BACKEND)")
	flag.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (or set PUSHGATEWAY_URL)")
	flag.Parse()

	log := logger.New(o.verbose)

	p, err := loadPipeline(o, nil)
	if err != nil {
		return err
	}

	if err := checkConfig(os.Stderr, p, o.dryRun); err != nil {
		return err
	}
	if o.validate {
		log.Info("configuration is valid", "config", o.configPath)
		return nil
	}

	flush := setupMetrics(p, log)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := execute(ctx, p, o, log)
	if sum != nil {
		_, _ = sum.WriteTo(os.Stdout)
	}
	if err != nil {
		log.Error("run failed", "class", classify(err), "err", err)
		return errRunFailed
	}
	return nil
}

// checkConfig prints every validation issue to w and fails when any is an
// error. A dry run never opens the store, so it needs no DSN.
func checkConfig(w io.Writer, p config.Pipeline, dryRun bool) error {
	issues := config.ValidatePipeline(p)
	if dryRun {
		issues = slices.DeleteFunc(issues, func(iss config.Issue) bool { return iss.Path == "storage.dsn" })
	}
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	return nil
}

// loadPipeline builds the effective config: built-in plan, then the config
// file, then .env and the environment, then flags.
func loadPipeline(o options, environ map[string]string) (config.Pipeline, error) {
	p := config.Default()
	if o.configPath != "" {
		var err error
		if p, err = config.Load(o.configPath); err != nil {
			return p, err
		}
	}
	if environ == nil {
		config.LoadDotEnv(".env")
	}
	if err := config.ApplyEnv(&p, environ); err != nil {
		return p, err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Storage.Kind, o.storageKind)
	set(&p.Storage.DSN, o.dsn)
	set(&p.DataDir, o.dataDir)
	set(&p.Metrics.Backend, o.metricsBackend)
	set(&p.Metrics.PushgatewayURL, o.pushgatewayURL)
	if o.createSchema {
		p.Storage.CreateSchema = true
	}
	return p, nil
}

// execute opens the store (unless dry-running), bootstraps the schema when
// asked, and runs the pipeline.
func execute(ctx context.Context, p config.Pipeline, o options, log *slog.Logger) (*pipeline.Summary, error) {
	wcfg := sink.Config{BatchSize: p.Storage.BatchSize, Job: p.Job, Logger: log}

	var w *sink.Writer
	if o.dryRun {
		log.Info("dry run: nothing will be written")
		w = sink.NewDiscard(wcfg)
	} else {
		repo, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", p.Storage.Kind, err)
		}
		defer repo.Close()

		if p.Storage.CreateSchema {
			if err := storage.EnsureSchema(ctx, p.Storage.Kind, repo, schema.Catalog()); err != nil {
				return nil, err
			}
			log.Info("schema ensured", "tables", len(schema.Catalog()))
		}
		w = sink.NewWriter(repo, wcfg)
	}

	r := pipeline.New(pipeline.Config{Pipeline: p, Writer: w, Logger: log})
	log.Info("run started", "run_id", r.RunID(), "job", p.Job, "storage", p.Storage.Kind, "data_dir", p.DataDir)
	return r.Run(ctx)
}

// classify names the error class for the final log line.
func classify(err error) string {
	var (
		ioErr     *dataset.IOError
		schemaErr *dataset.SchemaError
		storeErr  *sink.StoreWriteError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &storeErr):
		return "store"
	default:
		return "other"
	}
}
