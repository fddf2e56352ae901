// internal/tickets/mapping.go
package tickets

import (
	"strings"

	"ticket-triage/internal/models"
)

// Internal ticket categories.
const (
	CategoryBilling   = "billing"
	CategoryFeature   = "feature"
	CategoryAccount   = "account"
	CategoryTechnical = "technical"
	CategoryGeneral   = "general"
)

// MapIssueCategory folds a free-text historical category into an internal category.
func MapIssueCategory(category string) string {
	c := strings.ToLower(category)
	switch {
	case containsAny(c, "payment", "billing"):
		return CategoryBilling
	case containsAny(c, "feature", "language"):
		return CategoryFeature
	case containsAny(c, "account", "sync"):
		return CategoryAccount
	case containsAny(c, "device", "compatibility", "network", "connectivity", "software", "installation"):
		return CategoryTechnical
	default:
		return CategoryGeneral
	}
}

// MapPriority folds historical priority labels into low, medium or high.
func MapPriority(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "critical", "urgent", "high":
		return models.PriorityHigh
	case "medium", "moderate":
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FromHistorical converts a corpus record into a resolved or open ticket.
func FromHistorical(rec models.HistoricalTicketRecord, fallbackCreatedAt string) models.Ticket {
	status := models.StatusOpen
	if strings.EqualFold(strings.TrimSpace(rec.ResolutionStatus), "resolved") {
		status = models.StatusResolved
	}
	solution := strings.TrimSpace(rec.Solution)
	return models.Ticket{
		ID:            strings.TrimSpace(rec.TicketID),
		Subject:       orDefault(strings.TrimSpace(rec.IssueCategory), "No Subject"),
		Description:   orDefault(solution, "No Description"),
		CustomerName:  "Historical Data",
		CustomerEmail: "historical@example.com",
		CreatedAt:     orDefault(strings.TrimSpace(rec.ResolutionDate), fallbackCreatedAt),
		Status:        status,
		Priority:      MapPriority(orDefault(rec.Priority, models.PriorityMedium)),
		Category:      MapIssueCategory(rec.IssueCategory),
		Sentiment:     strings.ToLower(orDefault(strings.TrimSpace(rec.Sentiment), "neutral")),
		Resolution:    solution,
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
