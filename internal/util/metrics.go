package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConfigLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_config_loads_total",
		Help: "Configuration loads by outcome (hit, loaded, degraded)",
	}, []string{"outcome"})

	ConfigFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_config_fetch_latency_seconds",
		Help:    "Latency of fetching and validating a configuration document",
		Buckets: prometheus.DefBuckets,
	})

	ConfigInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_config_invalidations_total",
		Help: "Total number of configuration cache invalidations",
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation and result",
	}, []string{"operation", "result"})

	CartSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_sessions_active",
		Help: "Number of live cart sessions",
	})

	CheckoutAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_attempts_total",
		Help: "Checkout attempts by outcome",
	}, []string{"outcome"})

	PlatformRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_platform_request_latency_seconds",
		Help:    "Latency of commerce platform calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
