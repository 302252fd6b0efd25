// Package storage holds what every backend shares: the Repository contract,
// registries of factories and DDL dialects keyed by storage kind, and the
// batched loader the sink drives.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is an open handle on a relational store. It is created once per
// run and closed when the run ends, whatever the outcome.
//
// Begin opens the write session for one table. Every batch copied through
// the session lands in the same transaction, so a table is either written
// completely or not at all.
type Repository interface {
	Begin(ctx context.Context, table string, columns []string) (Session, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// Session appends rows to one table inside one transaction. CopyFrom takes
// rows aligned to the columns given to Begin and returns the number the
// backend accepted. Commit or Rollback ends the session and releases its
// connection; after either, the session must not be used.
type Session interface {
	CopyFrom(ctx context.Context, rows [][]any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Config selects a backend and tells it how to connect.
type Config struct {
	Kind string // postgres | sqlite | mssql | mysql
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
