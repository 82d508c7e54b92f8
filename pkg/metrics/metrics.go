package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_actions_total",
		Help: "The total number of claim and donate actions by outcome",
	}, []string{"action", "outcome"})

	ActionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_action_errors_total",
		Help: "Total number of failed actions by error category",
	}, []string{"action", "category"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smilepool_action_duration_seconds",
		Help:    "Time from building intentions to a terminal state",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s up to ~1h
	}, []string{"action"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smilepool_stage_duration_seconds",
		Help:    "Time spent in each stage of an action",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"action", "stage"})

	ActionInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smilepool_action_in_flight",
		Help: "1 while an action is between building and a terminal state",
	})

	BroadcastsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smilepool_broadcasts_rejected_total",
		Help: "Broadcasts refused because the circuit breaker was open",
	})

	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_resolver_outcomes_total",
		Help: "Execution-hash resolutions by result (resolved or fallback)",
	}, []string{"action", "result"})

	ConfirmationPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_confirmation_polls_total",
		Help: "Settlement-chain status polls by result",
	}, []string{"result"})

	PoolBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smilepool_pool_balance_tokens",
		Help: "Pool balance in whole reward tokens",
	})

	PoolRewardAmount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smilepool_pool_reward_tokens",
		Help: "Reward paid per claim in whole tokens",
	})

	PoolRefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smilepool_pool_refresh_errors_total",
		Help: "Failed pool snapshot refreshes",
	})

	PoolSnapshotTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smilepool_pool_snapshot_timestamp_seconds",
		Help: "Unix time of the latest pool snapshot",
	})

	VisionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_vision_requests_total",
		Help: "Vision scoring requests by result",
	}, []string{"result"})

	FeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilepool_feed_errors_total",
		Help: "Off-chain feed store failures by operation",
	}, []string{"operation"})

	TokenBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smilepool_token_balance",
		Help: "Token balance of the executor account in whole tokens",
	}, []string{"symbol"})
)
