// Package metrics exposes Prometheus metrics for the scoring pipeline and
// the weekly insight engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teampulse"

var (
	// MessagesScored counts messages that received a classifier score.
	MessagesScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scorer",
		Name:      "messages_scored_total",
		Help:      "Messages persisted with a sentiment score.",
	})

	// ScoreFallbacks counts messages that ended with a neutral fallback score.
	ScoreFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scorer",
		Name:      "score_fallbacks_total",
		Help:      "Messages scored with a neutral fallback instead of a classifier result.",
	})

	// ScoreStoreErrors counts per-message persistence failures.
	ScoreStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scorer",
		Name:      "store_errors_total",
		Help:      "Per-message score persistence failures.",
	})

	// SweepBacklog reports the eligible message count seen by the last sweep.
	SweepBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scorer",
		Name:      "sweep_backlog",
		Help:      "Unscored messages picked up by the most recent sweep.",
	})

	// BreakerState reports the shared circuit breaker state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})

	// InsightRuns counts weekly insight engine runs by status.
	InsightRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "insight",
		Name:      "runs_total",
		Help:      "Weekly insight runs by terminal status.",
	}, []string{"status"})

	// InsightFallbacks counts runs that used rule-based recommendations.
	InsightFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "insight",
		Name:      "rule_fallbacks_total",
		Help:      "Insight generations that degraded to the rule-based path.",
	})

	// ChannelsProcessed counts channels that received a weekly insight upsert.
	ChannelsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "insight",
		Name:      "channels_processed_total",
		Help:      "Channels with a successfully upserted weekly insight.",
	})

	// WorkerHealthy reports per-worker health (1 healthy, 0 unhealthy).
	WorkerHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "healthy",
		Help:      "Worker health: 1 healthy, 0 unhealthy.",
	}, []string{"worker"})

	// WorkerHeartbeat reports the unix time of each worker's last heartbeat.
	WorkerHeartbeat = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "heartbeat_seconds",
		Help:      "Unix timestamp of the worker's most recent heartbeat.",
	}, []string{"worker"})
)
