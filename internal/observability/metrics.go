package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warbler_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_cache_lookups_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// AuthAttempts counts signups and logins by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_auth_attempts_total",
		Help: "Signup and login attempts by kind and outcome",
	}, []string{"kind", "outcome"})

	// SocialEvents counts messages posted and deleted, likes and follows.
	SocialEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_social_events_total",
		Help: "Messages, likes and follows by event type",
	}, []string{"event"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAuth increments the auth attempts counter.
func RecordAuth(kind string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	AuthAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordSocialEvent increments the social events counter.
func RecordSocialEvent(event string) {
	SocialEvents.WithLabelValues(event).Inc()
}
