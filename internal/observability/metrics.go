package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LLMRequestsTotal counts model calls by provider, operation and outcome.
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	// LLMRequestDuration observes single-attempt latency.
	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "operation"},
	)
	// LLMRetriesTotal counts retries by provider and retry class.
	LLMRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_retries_total",
			Help: "Total number of LLM retries by provider and retry class",
		},
		[]string{"provider", "class"},
	)
	// LLMTokensTotal accumulates reported token usage.
	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total number of tokens reported by providers",
		},
		[]string{"provider", "kind"},
	)
	// StageOutcomesTotal counts pipeline stage results.
	StageOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_outcomes_total",
			Help: "Pipeline stage results by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
	// BestEffortFailuresTotal counts swallowed post-processing failures.
	BestEffortFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "best_effort_failures_total",
			Help: "Failures of best-effort passes that were logged and skipped",
		},
		[]string{"pass"},
	)
	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. It is safe
// to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMRetriesTotal,
			LLMTokensTotal,
			StageOutcomesTotal,
			BestEffortFailuresTotal,
			HTTPRequestsTotal,
		)
	})
}
