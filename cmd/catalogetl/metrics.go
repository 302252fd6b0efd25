package main

import (
	"log/slog"

	"catalogetl/internal/config"
	"catalogetl/internal/metrics"
	"catalogetl/internal/metrics/datadog"
	"catalogetl/internal/metrics/prompush"
)

const defaultPushgatewayURL = "http://localhost:9091"

// setupMetrics installs the configured metrics backend and returns the flush
// to run at exit. Backend failures disable metrics; they never stop the run.
func setupMetrics(p config.Pipeline, log *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "pushgateway":
		gwURL := p.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = defaultPushgatewayURL
		}
		b, err = prompush.NewBackend(p.Job, gwURL)
		if err == nil {
			log.Info("metrics enabled", "backend", "pushgateway", "url", gwURL)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  "catalogetl.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err == nil {
			log.Info("metrics enabled", "backend", "datadog", "addr", p.Metrics.DatadogAddr)
		}
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}
	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", p.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend init failed; using nop", "err", err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "err", err)
		}
	}
}
