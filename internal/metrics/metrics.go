// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthorizationDecisions counts gateway outcomes
	AuthorizationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_authorization_decisions_total",
			Help: "Authorization decisions by required level and outcome",
		},
		[]string{"level", "outcome"}, // outcome: allowed/denied/not_found/error
	)

	// ShareRedemptions counts share-link redemption attempts
	ShareRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_share_redemptions_total",
			Help: "Share link redemption attempts by outcome",
		},
		[]string{"outcome"}, // granted/expired/exhausted/bad_password/locked/not_found
	)

	// EditorSaves counts editor callbacks that produced a version
	EditorSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_editor_saves_total",
			Help: "Editor save callbacks by outcome",
		},
		[]string{"outcome"},
	)

	// BlobCleanupPending is the size of the retry backlog
	BlobCleanupPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docvault_blob_cleanup_pending",
			Help: "Blob paths waiting for a delete retry",
		},
	)

	// HTTPRequestDuration tracks request latency by route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
