// Package corpus holds the read-only reference data used to enrich prompts: resolved
// historical tickets grouped by issue category and sample conversations per category.
// A Corpus is immutable after construction and safe for concurrent readers.
package corpus

import (
	"sort"

	"ticket-triage/internal/models"
)

type Corpus struct {
	records       []models.HistoricalTicketRecord
	categories    []string
	byCategory    map[string][]models.HistoricalTicketRecord
	conversations []models.ConversationExample
	byTopic       map[string]string
}

// New groups records by trimmed issue category, keeping first-seen category order and row
// order inside each category. Conversations are ordered by category name; a later duplicate
// category replaces the earlier text.
func New(records []models.HistoricalTicketRecord, conversations []models.ConversationExample) *Corpus {
	c := &Corpus{
		records:    append([]models.HistoricalTicketRecord(nil), records...),
		byCategory: make(map[string][]models.HistoricalTicketRecord),
		byTopic:    make(map[string]string),
	}

	for _, r := range c.records {
		category := trim(r.IssueCategory)
		if category == "" {
			continue
		}
		if _, seen := c.byCategory[category]; !seen {
			c.categories = append(c.categories, category)
		}
		c.byCategory[category] = append(c.byCategory[category], r)
	}

	for _, conv := range conversations {
		topic := trim(conv.Category)
		if _, seen := c.byTopic[topic]; !seen {
			c.conversations = append(c.conversations, models.ConversationExample{Category: topic})
		}
		c.byTopic[topic] = conv.Text
	}
	sort.SliceStable(c.conversations, func(i, j int) bool {
		return c.conversations[i].Category < c.conversations[j].Category
	})
	for i := range c.conversations {
		c.conversations[i].Text = c.byTopic[c.conversations[i].Category]
	}
	return c
}

// Empty returns a corpus with no data.
func Empty() *Corpus {
	return New(nil, nil)
}

func (c *Corpus) Records() []models.HistoricalTicketRecord {
	return append([]models.HistoricalTicketRecord(nil), c.records...)
}

// Categories lists issue categories in first-seen order.
func (c *Corpus) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c *Corpus) TicketsFor(category string) ([]models.HistoricalTicketRecord, bool) {
	records, ok := c.byCategory[category]
	return records, ok
}

// Conversations lists conversation examples ordered by category.
func (c *Corpus) Conversations() []models.ConversationExample {
	return append([]models.ConversationExample(nil), c.conversations...)
}

// ConversationMap returns category -> transcript.
func (c *Corpus) ConversationMap() map[string]string {
	out := make(map[string]string, len(c.byTopic))
	for k, v := range c.byTopic {
		out[k] = v
	}
	return out
}

func (c *Corpus) Conversation(category string) (string, bool) {
	text, ok := c.byTopic[category]
	return text, ok
}

func (c *Corpus) HistoricalCount() int   { return len(c.records) }
func (c *Corpus) ConversationCount() int { return len(c.conversations) }
