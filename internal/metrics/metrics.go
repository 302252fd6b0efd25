// Package metrics records run events for the catalog ETL. Call sites use the
// Record* helpers; a Backend installed with SetBackend decides where the
// events go. The default backend drops everything.
package metrics

import (
	"sync/atomic"
	"time"
)

// Backend receives typed run events. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Step reports one finished run step.
	Step(job, step string, ok bool, d time.Duration)
	// Rows adds n to the record count of the given kind
	// ("loaded", "inserted", "dropped_tokens").
	Rows(job, kind string, n int64)
	// TableRows adds n to the rows written to table.
	TableRows(job, table string, n int64)
	// DroppedTokens adds n to the tokens dropped while normalizing column.
	DroppedTokens(job, column string, n int64)
	// Batches adds n to the batches flushed to the store.
	Batches(job string, n int64)
	// Flush delivers buffered data.
	Flush() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Step(string, string, bool, time.Duration) {}
func (Nop) Rows(string, string, int64)               {}
func (Nop) TableRows(string, string, int64)          {}
func (Nop) DroppedTokens(string, string, int64)      {}
func (Nop) Batches(string, int64)                    {}
func (Nop) Flush() error                             { return nil }

type holder struct{ b Backend }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{Nop{}}) }

func active() Backend { return current.Load().b }

// SetBackend installs b and returns the backend it replaced. A nil b leaves
// the current backend in place.
func SetBackend(b Backend) Backend {
	prev := active()
	if b != nil {
		current.Store(&holder{b})
	}
	return prev
}

// Flush flushes the installed backend.
func Flush() error { return active().Flush() }

// RecordStep reports a step outcome; a nil err counts as success.
func RecordStep(job, step string, err error, d time.Duration) {
	active().Step(job, step, err == nil, d)
}

// RecordRow adds delta rows of kind. Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta > 0 {
		active().Rows(job, kind, delta)
	}
}

// RecordBatches adds delta flushed batches.
func RecordBatches(job string, delta int64) {
	if delta > 0 {
		active().Batches(job, delta)
	}
}

// RecordTableRows adds delta rows written to table and counts them as
// "inserted".
func RecordTableRows(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	b := active()
	b.TableRows(job, table, delta)
	b.Rows(job, "inserted", delta)
}

// RecordDroppedTokens adds delta tokens of column that had no id, and counts
// them as "dropped_tokens".
func RecordDroppedTokens(job, column string, delta int64) {
	if delta <= 0 {
		return
	}
	b := active()
	b.DroppedTokens(job, column, delta)
	b.Rows(job, "dropped_tokens", delta)
}
