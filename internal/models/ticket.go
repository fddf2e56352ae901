// internal/models/ticket.go
package models

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Ticket is a customer support request. It is never modified by the analysis pipeline.
type Ticket struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Category      string `json:"category"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	AssignedTo    string `json:"assignedTo,omitempty"`
	Resolution    string `json:"resolution,omitempty"`
	Sentiment     string `json:"sentiment,omitempty"`
}

// CreateTicketRequest is the body accepted by ticket creation.
type CreateTicketRequest struct {
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Category      string `json:"category"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	AssignedTo    string `json:"assignedTo"`
}

// HistoricalTicketRecord is one row of the resolved-ticket corpus. JSON keys follow the CSV header.
type HistoricalTicketRecord struct {
	TicketID         string `json:"Ticket ID"`
	IssueCategory    string `json:"Issue Category"`
	Sentiment        string `json:"Sentiment"`
	Priority         string `json:"Priority"`
	Solution         string `json:"Solution"`
	ResolutionStatus string `json:"Resolution Status"`
	ResolutionDate   string `json:"Date of Resolution"`
}

// ConversationExample is a sample support transcript for one category.
type ConversationExample struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

type KnowledgeArticle struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

type TicketHistory struct {
	Ticket  Ticket         `json:"ticket"`
	History []HistoryEntry `json:"history"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

type TicketStats struct {
	Total                 int             `json:"total"`
	Open                  int             `json:"open"`
	InProgress            int             `json:"inProgress"`
	Resolved              int             `json:"resolved"`
	AverageResolutionTime string          `json:"averageResolutionTime"`
	CategoryDistribution  []CategoryCount `json:"categoryDistribution"`
	PriorityDistribution  []PriorityCount `json:"priorityDistribution"`
}
