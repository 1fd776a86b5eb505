// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package metrics exposes Prometheus instrumentation for the server.
// All collectors are registered on the default registry via promauto
// and served from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmotune_http_requests_total",
		Help: "Total HTTP requests by route and status code.",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atmotune_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// QueueGenerationDuration observes how long queue generation takes.
	QueueGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "atmotune_queue_generation_duration_seconds",
		Help:    "Time spent scoring and assembling a queue.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// TracksScored counts scored candidates.
	TracksScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atmotune_tracks_scored_total",
		Help: "Total candidate tracks scored.",
	})

	// PlaybackEvents counts recorded playback outcomes.
	PlaybackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmotune_playback_events_total",
		Help: "Recorded playback events by outcome.",
	}, []string{"outcome"})

	// ListenerCount gauges how many listeners have stored state.
	ListenerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "atmotune_listeners",
		Help: "Number of listeners with stored state.",
	})

	// UpstreamRequestDuration observes upstream API latency.
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atmotune_upstream_request_duration_seconds",
		Help:    "Upstream API latency by provider.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// UpstreamErrors counts upstream failures by provider.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmotune_upstream_errors_total",
		Help: "Upstream API failures by provider.",
	}, []string{"provider"})
)

// Playback event outcome labels.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomePartial   = "partial"
)
