// Package metrics 定义 Prometheus 指标，由各组件直接打点，cmd 通过 promhttp 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moodrec"

var (
	// 推荐
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok / cold_start / error
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end recommendation latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_candidates_scored",
			Help:      "Active candidates scored per request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// 互动日志
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_recorded_total",
			Help:      "Interactions accepted into the log by type",
		},
		[]string{"type"},
	)

	InteractionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_rejected_total",
			Help:      "Interactions rejected by validation",
		},
	)

	// 参与度聚合
	EngagementRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engagement_refreshes_total",
			Help:      "Engagement aggregate refreshes by result",
		},
		[]string{"result"}, // ok / partial / error
	)

	EngagementRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engagement_refresh_duration_seconds",
			Help:      "Duration of a full engagement recomputation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	EngagementPairs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engagement_pairs",
			Help:      "User-activity pairs in the current engagement snapshot",
		},
	)

	EngagementLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engagement_last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful engagement refresh",
		},
	)

	// Embedding
	EmbeddingLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_lookups_total",
			Help:      "Embedding lookups by backend, owner and result",
		},
		[]string{"backend", "owner", "result"}, // result: hit / miss / error
	)

	EmbeddingBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_breaker_state",
			Help:      "Circuit breaker state of remote embedding backends (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
