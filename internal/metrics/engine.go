package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chartfind",
			Name:      "searches_total",
			Help:      "Total number of searches started",
		},
		[]string{"mode"}, // "numeric" / "text"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chartfind",
			Name:      "search_duration_seconds",
			Help:      "Strategy fan-out duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	StrategyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chartfind",
			Name:      "strategy_failures_total",
			Help:      "Query strategies that failed and degraded to empty results",
		},
		[]string{"strategy"},
	)

	EntityCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chartfind",
			Name:      "entity_cache_total",
			Help:      "Entity cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(StrategyFailuresTotal)
	prometheus.MustRegister(EntityCacheTotal)
	engineMetricsRegistered = true
}
