// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package metrics exposes Prometheus instrumentation for CineLens.
//
// Metrics are served at /metrics in serve mode:
//   - pipeline_rows_processed_total{stage}
//   - pipeline_stage_duration_seconds{stage}
//   - api_requests_total{method, endpoint, status}
//   - api_request_duration_seconds{method, endpoint}
//   - recommend_requests_total{mode}
//   - recommend_latency_seconds{mode}
//   - recommend_cache_hits_total / recommend_cache_misses_total
//   - model_training_runs_total{algorithm, outcome}
//   - model_training_duration_seconds{algorithm}
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	PipelineRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_processed_total",
			Help: "Total input rows processed by each pipeline stage",
		},
		[]string{"stage"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Wall-clock duration of pipeline stage runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1200},
		},
		[]string{"stage"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total recommendation requests by mode",
		},
		[]string{"mode"},
	)

	RecommendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_latency_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Recommendation response cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Recommendation response cache misses",
		},
	)

	// Training metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_training_runs_total",
			Help: "Model training runs by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Per-algorithm training duration",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"algorithm"},
	)
)

// StageCompleted records a finished pipeline stage run.
func StageCompleted(stage string, rows int64, duration time.Duration) {
	PipelineRows.WithLabelValues(stage).Add(float64(rows))
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RequestCompleted records a finished API request.
func RequestCompleted(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrainingCompleted records an algorithm training run.
func TrainingCompleted(algorithm string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	TrainingRuns.WithLabelValues(algorithm, outcome).Inc()
	TrainingDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}
