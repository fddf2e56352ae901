// Package contextselector picks the historical tickets and the sample conversation most
// relevant to a ticket and renders them as a prompt-ready text block.
//
// Matching uses the ticket subject as the key. An exact category match wins outright.
// Otherwise categories are matched by case-insensitive containment in either direction.
package contextselector

import (
	"fmt"
	"sort"
	"strings"

	"ticket-triage/internal/corpus"
	"ticket-triage/internal/models"
)

const (
	HistoricalMarker   = "RELEVANT HISTORICAL TICKETS"
	ConversationMarker = "RELEVANT CONVERSATION EXAMPLE"

	maxCases         = 3
	perPartialMatch  = 2
	noContextMessage = "No historical context available"
)

// Select returns the formatted context block for ticket, or "" when nothing matches.
func Select(ticket models.Ticket, c *corpus.Corpus) string {
	if c == nil {
		return ""
	}
	subject := strings.TrimSpace(ticket.Subject)

	var b strings.Builder
	if cases := selectTickets(subject, c); len(cases) > 0 {
		b.WriteString("--- " + HistoricalMarker + " ---\n")
		for i, rec := range cases {
			fmt.Fprintf(&b, "Case #%d: %s\n", i+1, orDefault(rec.TicketID, "Unknown"))
			fmt.Fprintf(&b, "Issue: %s\n", orDefault(rec.IssueCategory, "Unknown"))
			fmt.Fprintf(&b, "Customer Sentiment: %s\n", orDefault(rec.Sentiment, "Unknown"))
			fmt.Fprintf(&b, "Priority: %s\n", orDefault(rec.Priority, "Unknown"))
			fmt.Fprintf(&b, "Solution: %s\n", orDefault(rec.Solution, "No solution recorded"))
			fmt.Fprintf(&b, "Status: %s\n\n", orDefault(rec.ResolutionStatus, "Unknown"))
		}
	}

	if conv := selectConversation(subject, c); conv != "" {
		b.WriteString("--- " + ConversationMarker + " ---\n")
		b.WriteString(conv + "\n")
	}
	return b.String()
}

func selectTickets(subject string, c *corpus.Corpus) []models.HistoricalTicketRecord {
	if exact, ok := c.TicketsFor(subject); ok && len(exact) > 0 {
		return head(exact, maxCases)
	}

	var pool []models.HistoricalTicketRecord
	for _, category := range c.Categories() {
		if !related(subject, category) {
			continue
		}
		records, _ := c.TicketsFor(category)
		pool = append(pool, head(records, perPartialMatch)...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return isHigh(pool[i]) && !isHigh(pool[j])
	})
	return head(pool, maxCases)
}

// selectConversation prefers an exact category match, then the longest overlapping
// match. Ties keep the first match in category order.
func selectConversation(subject string, c *corpus.Corpus) string {
	if text, ok := c.Conversation(subject); ok && text != "" {
		return text
	}

	lowerSubject := strings.ToLower(subject)
	best, longest := "", 0
	for _, conv := range c.Conversations() {
		lowerCategory := strings.ToLower(conv.Category)
		var length int
		if strings.Contains(lowerSubject, lowerCategory) {
			length = len(conv.Category)
		}
		if strings.Contains(lowerCategory, lowerSubject) && len(subject) > length {
			length = len(subject)
		}
		if length > longest {
			longest, best = length, conv.Text
		}
	}
	return best
}

func related(subject, category string) bool {
	s, c := strings.ToLower(subject), strings.ToLower(category)
	return strings.Contains(c, s) || strings.Contains(s, c)
}

func isHigh(rec models.HistoricalTicketRecord) bool {
	return strings.EqualFold(rec.Priority, models.PriorityHigh)
}

func head(records []models.HistoricalTicketRecord, n int) []models.HistoricalTicketRecord {
	if len(records) > n {
		records = records[:n]
	}
	return append([]models.HistoricalTicketRecord(nil), records...)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
