// internal/workers/triage/extract-actions/models.go
package extractactions

import "ticket-triage/internal/common/metrics"

type Action struct {
	Type        string `json:"type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description"`
}

type Output struct {
	Actions []Action `json:"actions"`

	Source string `json:"-"`
}

func Default() *Output {
	return &Output{
		Actions: []Action{{Description: "Review ticket manually"}},
		Source:  metrics.SourceDefault,
	}
}
