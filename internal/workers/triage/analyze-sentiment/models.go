// internal/workers/triage/analyze-sentiment/models.go
package analyzesentiment

import "ticket-triage/internal/common/metrics"

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type Output struct {
	OverallSentiment string             `json:"overallSentiment"`
	Score            float64            `json:"score"`
	SentimentScores  map[string]float64 `json:"sentimentScores,omitempty"`
	Emotions         map[string]float64 `json:"emotions"`
	Intensity        float64            `json:"intensity"`
	KeyPhrases       []string           `json:"keyPhrases,omitempty"`
	Summary          string             `json:"summary,omitempty"`

	Source string `json:"-"`
}

// Default stands in for a result only when the analyzer itself panics.
func Default() *Output {
	return &Output{
		OverallSentiment: SentimentNeutral,
		Score:            0.5,
		Emotions:         map[string]float64{},
		Intensity:        0.5,
		Source:           metrics.SourceDefault,
	}
}
