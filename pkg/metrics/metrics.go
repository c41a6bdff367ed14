package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inviteforge_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// RendersTotal counts invite render operations and their outcome (success|error).
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inviteforge_renders_total",
			Help: "Total number of invite render operations",
		},
		[]string{"result"},
	)

	// RenderDuration measures end-to-end render latency, including remote image fetches.
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inviteforge_render_duration_seconds",
			Help:    "Invite render latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RemoteFetchTotal counts remote image fetches by outcome (success|error).
	RemoteFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inviteforge_remote_fetch_total",
			Help: "Total number of remote image fetch attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inviteforge_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
