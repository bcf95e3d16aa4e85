package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HubRequestsTotal tracks logical hub requests by endpoint and final outcome
	HubRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_hub_requests_total",
			Help: "Total number of logical hub requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// HubAttemptsTotal tracks individual HTTP attempts, retries included
	HubAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_hub_attempts_total",
			Help: "Total number of HTTP attempts against the hub",
		},
		[]string{"endpoint"},
	)

	// HubErrorsTotal tracks classified hub failures
	HubErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_hub_errors_total",
			Help: "Total number of hub errors by kind",
		},
		[]string{"endpoint", "kind"},
	)

	// HubLatency tracks per-attempt latency
	HubLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askhub_hub_latency_seconds",
			Help:    "Hub attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// LogPostsTotal tracks diagnostic posts to the hub log endpoint
	LogPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_log_posts_total",
			Help: "Total number of log entries forwarded to the hub",
		},
		[]string{"result"},
	)

	// SkillInvocationsTotal tracks voice invocations per intent
	SkillInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_skill_invocations_total",
			Help: "Total number of voice invocations handled",
		},
		[]string{"intent", "outcome"},
	)

	// TokenCacheTotal tracks account-linking token cache lookups
	TokenCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhub_token_cache_total",
			Help: "Account-linking token cache lookups",
		},
		[]string{"result"},
	)
)
