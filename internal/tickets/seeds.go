// internal/tickets/seeds.go
package tickets

import "ticket-triage/internal/models"

// seedTickets are the open tickets listed next to the historical corpus.
func seedTickets(createdAt string) []models.Ticket {
	return []models.Ticket{
		{
			ID:            "T006",
			Subject:       "Payment Gateway Integration Failure",
			Description:   "Unable to process payment for the subscription. The payment gateway returns an error code 403.",
			CustomerName:  "Alice Brown",
			CustomerEmail: "alice.brown@example.com",
			CreatedAt:     createdAt,
			Status:        models.StatusOpen,
			Priority:      models.PriorityHigh,
			Category:      CategoryBilling,
			Sentiment:     "urgent",
		},
		{
			ID:            "T007",
			Subject:       "Feature request: Multi-language support",
			Description:   "Requesting support for multiple languages in the app. Our company is expanding to international markets.",
			CustomerName:  "Carlos Garcia",
			CustomerEmail: "carlos.garcia@example.com",
			CreatedAt:     createdAt,
			Status:        models.StatusOpen,
			Priority:      models.PriorityMedium,
			Category:      CategoryFeature,
			Sentiment:     "neutral",
		},
		{
			ID:            "T008",
			Subject:       "Device Compatibility Error",
			Description:   "The app crashes immediately after launching on Android devices. Using Samsung Galaxy S21.",
			CustomerName:  "Diana Evans",
			CustomerEmail: "diana.evans@example.com",
			CreatedAt:     createdAt,
			Status:        models.StatusOpen,
			Priority:      models.PriorityHigh,
			Category:      CategoryTechnical,
			Sentiment:     "annoyed",
		},
	}
}
