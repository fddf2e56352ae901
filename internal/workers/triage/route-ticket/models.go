// internal/workers/triage/route-ticket/models.go
package routeticket

import "ticket-triage/internal/common/metrics"

// Teams the router may pick from. A reply naming any other team is unusable.
var Teams = []string{
	"technical-support",
	"billing",
	"account-management",
	"product-feedback",
	"security",
	"legal",
}

func teamEnum() []interface{} {
	out := make([]interface{}, len(Teams))
	for i, team := range Teams {
		out[i] = team
	}
	return out
}

const (
	DefaultTeam = "technical-support"

	reasonNotProvided = "No reasoning provided"
	reasonAPIError    = "Default routing due to API error"
	reasonParseError  = "Default routing due to parsing error"
)

type Output struct {
	RecommendedTeam string  `json:"recommendedTeam"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning,omitempty"`

	Source string `json:"-"`
}

// Default is the routing used when the router module itself is unavailable.
func Default() *Output {
	return &Output{
		RecommendedTeam: DefaultTeam,
		Confidence:      0.5,
		Source:          metrics.SourceDefault,
	}
}

func withReason(reason string) *Output {
	out := Default()
	out.Reasoning = reason
	return out
}

func withOptionalDefaults() *Output {
	return &Output{
		Confidence: 0.5,
		Reasoning:  reasonNotProvided,
	}
}
