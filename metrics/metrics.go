// Package metrics provides Prometheus metrics for dojo-hub.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProfileCacheRequests counts profile cache lookups by result (hit, miss).
	ProfileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dojohub",
			Name:      "profile_cache_requests_total",
			Help:      "Total number of profile cache lookups",
		},
		[]string{"result"},
	)

	// ProfileLoadDuration measures profile service loads triggered by cache misses.
	ProfileLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dojohub",
			Name:      "profile_load_duration_seconds",
			Help:      "Duration of profile loads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// ProfileCacheInvalidations counts explicit invalidations by origin (local, internal, remote).
	ProfileCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dojohub",
			Name:      "profile_cache_invalidations_total",
			Help:      "Total number of profile cache invalidations",
		},
		[]string{"origin"},
	)

	// ProfileCacheEntries tracks live cache entries.
	ProfileCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dojohub",
			Name:      "profile_cache_entries",
			Help:      "Number of entries held by the profile cache",
		},
	)

	// SessionResolutions counts resolver outcomes (anonymous, resolved, not_found, error).
	SessionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dojohub",
			Name:      "session_resolutions_total",
			Help:      "Total number of current-user resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequests counts served requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dojohub",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDuration measures request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dojohub",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// RateLimitRejections counts requests refused by a rate limiter.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dojohub",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)
)

// RecordCacheLookup records a profile cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		ProfileCacheRequests.WithLabelValues("hit").Inc()
		return
	}
	ProfileCacheRequests.WithLabelValues("miss").Inc()
}

// RecordProfileLoad records a profile load and its outcome.
func RecordProfileLoad(status string, seconds float64) {
	ProfileLoadDuration.WithLabelValues(status).Observe(seconds)
}

// RecordInvalidation records a cache invalidation.
func RecordInvalidation(origin string) {
	ProfileCacheInvalidations.WithLabelValues(origin).Inc()
}

// RecordResolution records a session resolver outcome.
func RecordResolution(outcome string) {
	SessionResolutions.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, code int, seconds float64) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordRateLimited records a rejection by the named limiter.
func RecordRateLimited(limiter string) {
	RateLimitRejections.WithLabelValues(limiter).Inc()
}
