// Package telemetry holds the engine's Prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks cart engine activity.
type Metrics struct {
	MutationsTotal      *prometheus.CounterVec
	QuotesTotal         *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	CartItems           prometheus.Gauge
	QuoteDuration       prometheus.Histogram
	HTTPRequests        *prometheus.CounterVec
}

// NewMetrics creates and registers the engine's collectors.
// Pass prometheus.DefaultRegisterer outside of tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "greenhaus"
	}

	m := &Metrics{
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_mutations_total",
				Help:      "Cart mutations by operation and outcome",
			},
			[]string{"op", "status"},
		),
		QuotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_quotes_total",
				Help:      "Order quotes computed, by outcome",
			},
			[]string{"status"},
		),
		PersistenceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_persistence_failures_total",
				Help:      "Snapshot writes that failed after an in-memory mutation succeeded",
			},
		),
		CartItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cart_items",
				Help:      "Current item count in the cart",
			},
		),
		QuoteDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cart_quote_duration_seconds",
				Help:      "Time to compute an order quote",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.MutationsTotal, m.QuotesTotal, m.PersistenceFailures, m.CartItems, m.QuoteDuration, m.HTTPRequests)
	}

	return m
}
