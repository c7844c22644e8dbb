package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darasa_zoom_token_refreshes_total",
			Help: "Zoom OAuth token refresh attempts",
		},
		[]string{"result"}, // success|failure
	)

	TokenCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darasa_zoom_token_cache_hits_total",
			Help: "Zoom OAuth token requests served from cache",
		},
	)

	PresenceChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darasa_zoom_presence_checks_total",
			Help: "Zoom presence lookups by outcome",
		},
		[]string{"outcome"}, // available|busy|error
	)

	AvailabilityRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darasa_license_availability_requests_total",
			Help: "License availability reports produced",
		},
	)

	AvailabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "darasa_license_availability_duration_seconds",
			Help:    "Duration of full license availability fan-outs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(TokenRefreshes)
	prometheus.MustRegister(TokenCacheHits)
	prometheus.MustRegister(PresenceChecks)
	prometheus.MustRegister(AvailabilityRequests)
	prometheus.MustRegister(AvailabilityDuration)
}
