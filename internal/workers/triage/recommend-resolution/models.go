// internal/workers/triage/recommend-resolution/models.go
package recommendresolution

import "ticket-triage/internal/common/metrics"

type Resolution struct {
	Title      string   `json:"title,omitempty"`
	Steps      []string `json:"steps"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source,omitempty"`
}

type Output struct {
	SuggestedResolutions []Resolution `json:"suggestedResolutions"`

	Source string `json:"-"`
}

func Default() *Output {
	return &Output{
		SuggestedResolutions: []Resolution{{
			Steps:      []string{"Please try again later"},
			Confidence: 0.5,
		}},
		Source: metrics.SourceDefault,
	}
}
