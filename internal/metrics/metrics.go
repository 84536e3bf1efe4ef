// Package metrics exposes Prometheus collectors for provider calls,
// reconciliation outcomes, circuit breakers and the timings cache.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/vakit-cli/internal/notify"
	"github.com/sells-group/vakit-cli/internal/resilience"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	Outliers         *prometheus.CounterVec
	Selections       *prometheus.CounterVec
	DateFallbacks    prometheus.Counter
	CacheLookups     *prometheus.CounterVec
	CacheErrors      *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	Alerts           *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ProviderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_provider_calls_total",
				Help: "Provider calls by provider and result",
			},
			[]string{"provider", "result"},
		),

		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vakit_provider_call_duration_seconds",
				Help:    "Provider call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		Outliers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_reconcile_outliers_total",
				Help: "Results excluded as outliers, by provider",
			},
			[]string{"provider"},
		),

		Selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_reconcile_selections_total",
				Help: "Winning provider of each reconciliation",
			},
			[]string{"provider"},
		),

		DateFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vakit_reconcile_date_fallbacks_total",
				Help: "Reconciliations where no result matched today's date",
			},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_cache_lookups_total",
				Help: "Timings cache lookups by result",
			},
			[]string{"result"},
		),

		CacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_cache_errors_total",
				Help: "Swallowed timings cache storage failures by operation",
			},
			[]string{"op"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vakit_circuit_state",
				Help: "Circuit breaker state per provider (0 closed, 1 open, 2 half-open)",
			},
			[]string{"provider"},
		),

		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vakit_alerts_total",
				Help: "Proximity alerts emitted by anchor",
			},
			[]string{"anchor"},
		),
	}

	m.registry.MustRegister(
		m.ProviderCalls,
		m.ProviderDuration,
		m.Outliers,
		m.Selections,
		m.DateFallbacks,
		m.CacheLookups,
		m.CacheErrors,
		m.BreakerState,
		m.Alerts,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one provider call.
func (m *Metrics) ObserveCall(provider string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ProviderCalls.WithLabelValues(provider, result).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveOutlier records a provider excluded as an outlier.
func (m *Metrics) ObserveOutlier(provider string) {
	m.Outliers.WithLabelValues(provider).Inc()
}

// ObserveSelection records the winning provider.
func (m *Metrics) ObserveSelection(provider string, dateFallback bool) {
	m.Selections.WithLabelValues(provider).Inc()
	if dateFallback {
		m.DateFallbacks.Inc()
	}
}

// ObserveCacheLookup records a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheError records a swallowed storage failure.
func (m *Metrics) ObserveCacheError(op string) {
	m.CacheErrors.WithLabelValues(op).Inc()
}

// ObserveBreaker is a resilience state-change hook.
func (m *Metrics) ObserveBreaker(provider string, _, to resilience.CircuitState) {
	m.BreakerState.WithLabelValues(provider).Set(float64(to))
}

// Send counts a delivered alert. It lets Metrics sit in a notify.Multi.
func (m *Metrics) Send(_ context.Context, ev notify.Event) error {
	m.Alerts.WithLabelValues(string(ev.Anchor)).Inc()
	return nil
}
