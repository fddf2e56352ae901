// internal/workers/triage/summarize-ticket/models.go
package summarizeticket

import "ticket-triage/internal/common/metrics"

type Output struct {
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"keyPoints"`
	Sentiment      string   `json:"sentiment"`
	SimilarTickets []string `json:"similarTickets"`
	Confidence     float64  `json:"confidence"`

	Source string `json:"-"`
}

// Default is returned whenever the model reply cannot be used.
func Default() *Output {
	return &Output{
		Summary:        "Error generating summary",
		KeyPoints:      []string{"Error processing the ticket"},
		Sentiment:      "neutral",
		SimilarTickets: []string{},
		Confidence:     0.0,
		Source:         metrics.SourceDefault,
	}
}

// withOptionalDefaults is the decode target: keys the reply omits keep these values.
func withOptionalDefaults() *Output {
	return &Output{
		SimilarTickets: []string{},
		Confidence:     0.5,
	}
}
