package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meditrek_dispatch_requests_total",
			Help: "Dispatched prompts by outcome",
		},
		[]string{"backend", "outcome"},
	)

	attemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meditrek_dispatch_attempt_duration_seconds",
			Help:    "Latency of individual backend attempts",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"backend", "result"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meditrek_dispatch_duration_seconds",
			Help:    "End-to-end latency of Send including retries",
			Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)

	responseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meditrek_dispatch_response_bytes",
			Help:    "Size of backend completions",
			Buckets: prometheus.ExponentialBuckets(256, 2, 8),
		},
		[]string{"backend"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meditrek_dispatch_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meditrek_dispatch_retries_total",
			Help: "Backend retries after a transient failure",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(attemptDuration)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(responseBytes)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(retriesTotal)
}
