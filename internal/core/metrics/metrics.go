package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	// BackendRequests counts storefront backend calls by operation and outcome kind.
	BackendRequests *prometheus.CounterVec
	// BackendLatencyMS observes storefront backend call latency.
	BackendLatencyMS *prometheus.HistogramVec
	// Transitions counts order state machine transitions by target state.
	Transitions *prometheus.CounterVec
	// Reconciliations counts finished reconciliation loops by outcome.
	Reconciliations *prometheus.CounterVec
	// PollAttempts counts order status polls.
	PollAttempts prometheus.Counter
	// ActiveReconciliations is the number of live loops.
	ActiveReconciliations prometheus.Gauge
}

// New builds a Metrics bound to its own registry so several instances can
// coexist in one process (tests, embedded use).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "storefront",
			Name:      "requests_total",
			Help:      "Total number of storefront backend requests.",
		}, []string{"operation", "kind"}),
		BackendLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checkout",
			Subsystem: "storefront",
			Name:      "request_duration_ms",
			Help:      "Storefront backend request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "payments",
			Name:      "transitions_total",
			Help:      "Order state transitions applied by the reconciliation loop.",
		}, []string{"to"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "payments",
			Name:      "reconciliations_total",
			Help:      "Finished reconciliation loops by outcome.",
		}, []string{"outcome"}),
		PollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "payments",
			Name:      "poll_attempts_total",
			Help:      "Order status polls issued by reconciliation loops.",
		}),
		ActiveReconciliations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "checkout",
			Subsystem: "payments",
			Name:      "active_reconciliations",
			Help:      "Reconciliation loops currently running.",
		}),
	}

	reg.MustRegister(
		m.BackendRequests,
		m.BackendLatencyMS,
		m.Transitions,
		m.Reconciliations,
		m.PollAttempts,
		m.ActiveReconciliations,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
