// Package metrics provides Prometheus-compatible metrics for optqo.
//
// Two modes are supported:
//   - Scrape mode (server): metrics are registered with a Prometheus
//     registry and exposed on /metrics.
//   - Push mode (CLI): metrics are pushed to a VictoriaMetrics/
//     Prometheus remote-write endpoint, so one-shot pipeline runs still
//     leave a trace.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a value that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(float64)
}

// Counter is a monotonically increasing value.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()
	// Add adds the given value. Panics if negative.
	Add(float64)
}

// GaugeVec is a Gauge with labels.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics, hiding the difference between
// push and scrape modes.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
