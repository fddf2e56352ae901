// internal/workers/triage/process-ticket/models.go
package processticket

import (
	analyzesentiment "ticket-triage/internal/workers/triage/analyze-sentiment"
	estimateresolutiontime "ticket-triage/internal/workers/triage/estimate-resolution-time"
	extractactions "ticket-triage/internal/workers/triage/extract-actions"
	recommendresolution "ticket-triage/internal/workers/triage/recommend-resolution"
	routeticket "ticket-triage/internal/workers/triage/route-ticket"
	summarizeticket "ticket-triage/internal/workers/triage/summarize-ticket"
)

const TimestampLayout = "2006-01-02 15:04:05"

// AggregateResult is the combined pipeline response. Every analysis key is always set.
type AggregateResult struct {
	Error           string                         `json:"error,omitempty"`
	Summary         *summarizeticket.Output        `json:"summary"`
	Sentiment       *analyzesentiment.Output       `json:"sentiment"`
	Actions         *extractactions.Output         `json:"actions"`
	Routing         *routeticket.Output            `json:"routing"`
	TimeEstimation  *estimateresolutiontime.Output `json:"timeEstimation"`
	Recommendations *recommendresolution.Output    `json:"recommendations"`
	Metadata        *Metadata                      `json:"metadata,omitempty"`
}

type Metadata struct {
	ProcessingTime float64 `json:"processingTime"`
	Timestamp      string  `json:"timestamp"`
	ModelUsed      string  `json:"modelUsed"`
}

// Failed reports whether the pipeline fell back as a whole.
func (r *AggregateResult) Failed() bool {
	return r.Error != ""
}

// Fallback is the response when the pipeline cannot run to completion.
func Fallback(message string) *AggregateResult {
	return &AggregateResult{
		Error:           message,
		Summary:         summarizeticket.Default(),
		Sentiment:       analyzesentiment.Default(),
		Actions:         extractactions.Default(),
		Routing:         routeticket.Default(),
		TimeEstimation:  estimateresolutiontime.Default(),
		Recommendations: recommendresolution.Default(),
	}
}
