// Package prompush sends run metrics to a Prometheus Pushgateway. Collectors
// live in a private registry which Flush pushes under the job grouping key.
package prompush

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "catalogetl"

// Backend implements metrics.Backend.
type Backend struct {
	pusher *push.Pusher
	reg    *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
	tables   *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	batches  prometheus.Counter
}

// NewBackend returns a backend pushing to gatewayURL under job. An empty job
// becomes "catalogetl".
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, errors.New("prompush: gateway URL is required")
	}
	if job == "" {
		job = namespace
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	b := &Backend{
		reg: reg,
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "step_total",
			Help: "Finished run steps by step and status.",
		}, []string{"step", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "step_duration_seconds",
			Help:    "Run step wall time.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"step", "status"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_total",
			Help: "Rows by kind: loaded, inserted, dropped_tokens.",
		}, []string{"kind"}),
		tables: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "table_rows_total",
			Help: "Rows written per target table.",
		}, []string{"table"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dropped_tokens_total",
			Help: "Multi-value tokens without an id, per source column.",
		}, []string{"column"}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "batches_total",
			Help: "Batches flushed to the store.",
		}),
	}
	b.pusher = push.New(gatewayURL, job).Gatherer(reg)
	return b, nil
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Step implements metrics.Backend. The job is the push grouping key and is
// not repeated as a label.
func (b *Backend) Step(_ string, step string, ok bool, d time.Duration) {
	s := status(ok)
	b.steps.WithLabelValues(step, s).Inc()
	b.duration.WithLabelValues(step, s).Observe(d.Seconds())
}

func (b *Backend) Rows(_ string, kind string, n int64) {
	b.rows.WithLabelValues(kind).Add(float64(n))
}

func (b *Backend) TableRows(_ string, table string, n int64) {
	b.tables.WithLabelValues(table).Add(float64(n))
}

func (b *Backend) DroppedTokens(_ string, column string, n int64) {
	b.dropped.WithLabelValues(column).Add(float64(n))
}

func (b *Backend) Batches(_ string, n int64) {
	b.batches.Add(float64(n))
}

// Flush replaces the job's metric group on the gateway.
func (b *Backend) Flush() error {
	return b.pusher.Push()
}
