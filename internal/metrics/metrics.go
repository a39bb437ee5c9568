// Package metrics provides Prometheus instrumentation for the AI gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderAttempts counts individual provider attempts by outcome.
	// Outcome is "success" or the rotation kind of the failure
	// (transient, rate_limited, auth_rejected, invalid_response, fatal).
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumagic_provider_attempts_total",
			Help: "Provider attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// KeyRotations counts rotation decisions, i.e. a credential failed and
	// the executor advanced to the next one in the pool.
	KeyRotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumagic_key_rotations_total",
			Help: "Credential rotations by credential-family prefix.",
		},
		[]string{"prefix"},
	)

	// AttemptLatency tracks the latency of single provider attempts.
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edumagic_provider_attempt_seconds",
			Help:    "Latency of individual provider attempts in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// LessonsGenerated counts completed lesson generations by the provider
	// family that produced the content.
	LessonsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumagic_lessons_generated_total",
			Help: "Lessons generated by producing provider family.",
		},
		[]string{"provider"},
	)

	// ImageFallbacks counts image requests that degraded to the guaranteed
	// fallback image instead of a provider result.
	ImageFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edumagic_image_fallbacks_total",
			Help: "Image generations that fell back to the placeholder image.",
		},
	)

	// ImageCacheLookups counts image-cache lookups by result.
	ImageCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumagic_image_cache_lookups_total",
			Help: "Image URL cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)
)
