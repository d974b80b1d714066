// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poke"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// FetchRequests counts upstream record requests by outcome.
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Upstream record requests by outcome",
		},
		[]string{"outcome"},
	)

	// FetchRetries counts retried upstream requests.
	FetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Upstream requests that were retried",
		},
	)

	// FetchSource counts where each fetch got its records from
	// (cache, network, synthetic, none).
	FetchSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "source_total",
			Help:      "Fetches by record source",
		},
		[]string{"source"},
	)

	// PipelineRuns counts pipeline runs by final state.
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by final state",
		},
		[]string{"state"},
	)

	// PipelineDuration observes full pipeline run time.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// ChartsRendered counts rendered images by chart kind and outcome.
	ChartsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "charts_total",
			Help:      "Rendered charts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Answers counts chat answers by outcome.
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "answers_total",
			Help:      "Chat answers by outcome",
		},
		[]string{"outcome"},
	)
)
