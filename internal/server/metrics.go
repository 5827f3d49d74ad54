package server

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meditrek_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meditrek_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meditrek_http_requests_in_flight",
			Help: "Current in-flight requests",
		},
	)

	rateLimiterBuckets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meditrek_rate_limiter_buckets",
			Help: "Number of per-client rate limiter buckets",
		},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meditrek_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsInFlight)
	prometheus.MustRegister(rateLimiterBuckets)
	prometheus.MustRegister(rateLimitedTotal)
}
