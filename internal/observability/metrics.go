package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OffersCreated     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_share", Name: "offers_created_total", Help: "Total ride offers published"})
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_share", Name: "requests_submitted_total", Help: "Total ride requests submitted"})
	DiscoveryQueries  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_share", Name: "discovery_queries_total", Help: "Total discovery queries executed"})
	GeocodeFallbacks  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_share", Name: "geocode_fallbacks_total", Help: "Reverse geocode lookups that fell back to raw coordinates"})
	SessionsActive    = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_share", Name: "sessions_active", Help: "Sessions currently issued and not signed out"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_share", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_share",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
