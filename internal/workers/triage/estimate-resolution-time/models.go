// internal/workers/triage/estimate-resolution-time/models.go
package estimateresolutiontime

import "ticket-triage/internal/common/metrics"

// Factor is one influence on the estimate; positive impact lengthens it.
type Factor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"`
}

type Output struct {
	EstimatedMinutes float64  `json:"estimatedMinutes"`
	Confidence       float64  `json:"confidence"`
	Factors          []Factor `json:"factors,omitempty"`

	Source string `json:"-"`
}

func Default() *Output {
	return &Output{
		EstimatedMinutes: 30,
		Confidence:       0.5,
		Source:           metrics.SourceDefault,
	}
}

func withOptionalDefaults() *Output {
	return &Output{Confidence: 0.5}
}
