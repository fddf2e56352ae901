// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_agent_results_total",
			Help: "Agent results by agent and result source (parsed, default, heuristic)",
		},
		[]string{"agent", "source"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_agent_duration_seconds",
			Help:    "Duration of a single agent invocation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_llm_requests_total",
			Help: "Requests sent to the LLM backend by outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_llm_request_duration_seconds",
			Help:    "Duration of LLM generate calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	LLMUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triage_llm_up",
			Help: "1 when the last LLM status probe succeeded, 0 otherwise",
		},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_pipeline_runs_total",
			Help: "Ticket pipeline runs by outcome (completed, fallback)",
		},
		[]string{"outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_events_published_total",
			Help: "Analysis events written to the broker by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "status"},
	)
)

// Result sources.
const (
	SourceParsed    = "parsed"
	SourceDefault   = "default"
	SourceHeuristic = "heuristic"
)

// LLM outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeBadStatus = "bad_status"
	OutcomeError     = "error"
)
