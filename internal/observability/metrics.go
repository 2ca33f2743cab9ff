package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_dashboard"

// Metrics holds the Prometheus collectors shared by the dashboard and the bridge.
type Metrics struct {
	Fetches       *prometheus.CounterVec // labels: outcome={success,failure,skipped,stale}
	FetchDuration prometheus.Histogram

	HistoryAppends       *prometheus.CounterVec // labels: result={appended,duplicate}
	HistoryPersistErrors prometheus.Counter

	RelayForwards *prometheus.CounterVec // labels: outcome={sent,error,throttled}

	BridgeWrites *prometheus.CounterVec // labels: outcome={ok,invalid,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream forecast requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		HistoryAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_appends_total",
			Help:      "History append attempts by result.",
		}, []string{"result"}),
		HistoryPersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_persist_errors_total",
			Help:      "Failed writes of the history document.",
		}),
		RelayForwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_forwards_total",
			Help:      "Wind-speed relay decisions and results.",
		}, []string{"outcome"}),
		BridgeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_writes_total",
			Help:      "Wind-speed bridge requests by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Fetches,
		m.FetchDuration,
		m.HistoryAppends,
		m.HistoryPersistErrors,
		m.RelayForwards,
		m.BridgeWrites,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exposed, for
// one-shot commands that run without a /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
