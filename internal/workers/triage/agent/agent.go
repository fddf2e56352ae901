// Package agent holds the call-and-decode loop shared by the LLM-backed triage workers.
//
// A worker builds its prompt, hands it to Ask together with a destination value that
// already carries the optional-key defaults, and falls back to its canonical default
// when Ask returns an error. Ask makes exactly one generate call.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/llmjson"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/common/validation"
	"ticket-triage/internal/models"
)

var (
	ErrCallFailed  = errors.New("LLM_CALL_FAILED")
	ErrParseFailed = errors.New("MALFORMED_RESPONSE")
)

const DefaultTimeout = 30 * time.Second

// Definition is the fixed part of an agent: its name, system instruction and the keys a
// usable reply must carry.
type Definition struct {
	Name   string
	System string
	Schema *validation.Schema
}

type Agent struct {
	def       Definition
	generator llm.Generator
	timeout   time.Duration
	logger    logger.Logger
}

func New(def Definition, generator llm.Generator, timeout time.Duration, log logger.Logger) *Agent {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Agent{
		def:       def,
		generator: generator,
		timeout:   timeout,
		logger:    log.With(map[string]interface{}{"taskType": def.Name}),
	}
}

func (a *Agent) Name() string   { return a.def.Name }
func (a *Agent) System() string { return a.def.System }

// Ask sends prompt with the agent's system instruction and decodes the reply into dst.
// dst may be partially written when an error is returned, so callers pass a scratch value.
func (a *Agent) Ask(ctx context.Context, ticketID, prompt string, dst interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.generator.Generate(ctx, prompt, a.def.System)
	if err != nil {
		a.logger.Warn("model call failed, using default", map[string]interface{}{
			"ticketId":  ticketID,
			"errorCode": string(llm.Classify(err, a.timeout).Code),
			"error":     err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrCallFailed, err)
	}

	if err := llmjson.Decode(raw, a.def.Schema, dst); err != nil {
		a.logger.Warn("unusable model response, using default", map[string]interface{}{
			"ticketId": ticketID,
			"error":    err.Error(),
			"raw":      truncate(raw, 200),
		})
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}

// Observe records one finished invocation.
func Observe(name, source string, started time.Time, log logger.Logger, ticketID string) {
	elapsed := time.Since(started)
	metrics.AgentResults.WithLabelValues(name, source).Inc()
	metrics.AgentDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if log != nil {
		log.Debug("agent finished", map[string]interface{}{
			"ticketId":   ticketID,
			"taskType":   name,
			"source":     source,
			"durationMs": elapsed.Milliseconds(),
		})
	}
}

// Input is the job and direct-call payload shared by every analysis worker.
type Input struct {
	Ticket            models.Ticket `json:"ticket"`
	HistoricalContext string        `json:"historicalContext,omitempty"`
}

// InputSchema is the minimal shape a workflow job must carry.
var InputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"ticket"},
	"properties": map[string]interface{}{
		"ticket": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"id", "subject", "description", "customerName"},
		},
		"historicalContext": map[string]interface{}{"type": "string"},
	},
})

// Fields is a ticket with placeholders substituted for blank values, ready for prompts.
type Fields struct {
	ID            string
	Subject       string
	Description   string
	CustomerName  string
	CustomerEmail string
	Category      string
	Priority      string
	Status        string
}

func PromptFields(t models.Ticket) Fields {
	return Fields{
		ID:            orDefault(t.ID, "Unknown"),
		Subject:       orDefault(t.Subject, "No Subject"),
		Description:   orDefault(t.Description, "No Description"),
		CustomerName:  orDefault(t.CustomerName, "Unknown Customer"),
		CustomerEmail: orDefault(t.CustomerEmail, "No email"),
		Category:      orDefault(t.Category, "unknown"),
		Priority:      orDefault(t.Priority, models.PriorityMedium),
		Status:        orDefault(t.Status, models.StatusOpen),
	}
}

// Header renders the ticket lines every prompt starts with.
func (f Fields) Header() string {
	return fmt.Sprintf("Ticket #%s\nSubject: %s\nDescription: %s\nFrom: %s (%s)\n",
		f.ID, f.Subject, f.Description, f.CustomerName, f.CustomerEmail)
}

// ContextOrDefault returns blob, or a fixed notice when it is blank.
func ContextOrDefault(blob string) string {
	if strings.TrimSpace(blob) == "" {
		return NoContext
	}
	return blob
}

const NoContext = "No historical context available"

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
