// Package datadog sends run metrics to a DogStatsD agent.
package datadog

import (
	"errors"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config configures the statsd client.
type Config struct {
	// Addr is the agent address: "host:port" for UDP or "unix:///path".
	Addr string
	// Namespace prefixes metric names, e.g. "catalogetl.".
	Namespace string
	// GlobalTags are sent with every metric.
	GlobalTags []string
}

// client is the subset of statsd.ClientInterface the backend uses.
type client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Distribution(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend implements metrics.Backend. Every metric carries a job tag.
type Backend struct {
	c client
}

// NewBackend dials the agent described by cfg.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: Addr is required")
	}
	c, err := statsd.New(cfg.Addr,
		statsd.WithNamespace(cfg.Namespace),
		statsd.WithTags(cfg.GlobalTags),
	)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{c: c}, nil
}

func (b *Backend) count(name string, n int64, tags ...string) {
	if b.c != nil {
		_ = b.c.Count(name, n, tags, 1)
	}
}

func (b *Backend) Step(job, step string, ok bool, d time.Duration) {
	if b.c == nil {
		return
	}
	status := "status:success"
	if !ok {
		status = "status:failure"
	}
	tags := []string{"job:" + job, "step:" + step, status}
	_ = b.c.Count("step.count", 1, tags, 1)
	_ = b.c.Distribution("step.duration", d.Seconds(), tags, 1)
}

func (b *Backend) Rows(job, kind string, n int64) {
	b.count("rows", n, "job:"+job, "kind:"+kind)
}

func (b *Backend) TableRows(job, table string, n int64) {
	b.count("table.rows", n, "job:"+job, "table:"+table)
}

func (b *Backend) DroppedTokens(job, column string, n int64) {
	b.count("dropped_tokens", n, "job:"+job, "column:"+column)
}

func (b *Backend) Batches(job string, n int64) {
	b.count("batches", n, "job:"+job)
}

// Flush closes the client, sending anything still buffered. The backend is
// unusable afterwards.
func (b *Backend) Flush() error {
	if b.c == nil {
		return nil
	}
	return b.c.Close()
}
