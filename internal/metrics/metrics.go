package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pricesearch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pricesearch",
		Name:      "search_duration_seconds",
		Help:      "Duration of searches that missed the cache and fanned out to providers.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
	})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "provider_requests_total",
		Help:      "Total requests to price providers by provider name and result status.",
	}, []string{"provider", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pricesearch",
		Name:      "provider_request_duration_seconds",
		Help:      "Price provider request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	ProviderResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "provider_results_total",
		Help:      "Canonical results contributed by each provider after normalization.",
	}, []string{"provider"})

	ProviderStrategyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "provider_strategy_total",
		Help:      "Extraction strategy that produced a provider's records (structured, markup, none).",
	}, []string{"provider", "strategy"})

	NormalizationRejectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "normalization_rejects_total",
		Help:      "Raw records dropped because they could not produce a canonical result.",
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "cache_hits_total",
		Help:      "Total number of search cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricesearch",
		Name:      "cache_misses_total",
		Help:      "Total number of search cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SearchDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderResultsTotal,
		ProviderStrategyTotal,
		NormalizationRejectsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
