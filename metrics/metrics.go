package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatAttempts counts transport calls by outcome (success, retryable, terminal)
	ChatAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lawbot_chat_attempts_total",
			Help: "Total number of chat completion attempts",
		},
		[]string{"outcome"},
	)

	// ChatRetries counts backoff waits taken between attempts
	ChatRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lawbot_chat_retries_total",
			Help: "Total number of retries after a transient failure",
		},
	)

	// ChatFailures counts SendMessage calls that ended in a failure, per category
	ChatFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lawbot_chat_failures_total",
			Help: "Total number of chat messages that failed after all attempts",
		},
		[]string{"category"},
	)

	// ChatLatency tracks the duration of a single transport call
	ChatLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lawbot_chat_request_latency_seconds",
			Help:    "Chat completion request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// RateLimitWait tracks how long callers waited for a request slot
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lawbot_ratelimit_wait_seconds",
			Help:    "Time spent waiting for the request rate limiter",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// ActiveSessions tracks open conversation sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lawbot_active_sessions",
			Help: "Number of open conversation sessions",
		},
	)
)
