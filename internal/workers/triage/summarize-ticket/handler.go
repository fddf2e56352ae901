// internal/workers/triage/summarize-ticket/handler.go
package summarizeticket

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ticket-triage/internal/common/camunda"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/common/validation"
	"ticket-triage/internal/workers/triage/agent"
)

const TaskType = "summarize-ticket"

const systemPrompt = `You are an expert customer support summarizer.
Analyze the ticket and provide a concise summary, key points, and the sentiment of the customer.
Consider the historical context if provided.
Format your response as JSON like this:
{
  "summary": "A clear, concise summary of the issue",
  "keyPoints": ["Key point 1", "Key point 2", "Key point 3"],
  "sentiment": "positive|neutral|negative",
  "similarTickets": ["TICKET_ID1", "TICKET_ID2"],
  "confidence": 0.85
}`

var outputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"summary", "keyPoints", "sentiment"},
	"properties": map[string]interface{}{
		"summary":   map[string]interface{}{"type": "string", "minLength": 1},
		"keyPoints": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"sentiment": map[string]interface{}{"type": "string", "minLength": 1},
	},
})

type Handler struct {
	config *Config
	agent  *agent.Agent
	logger logger.Logger
}

func NewHandler(config *Config, generator llm.Generator, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		agent: agent.New(agent.Definition{
			Name:   TaskType,
			System: systemPrompt,
			Schema: outputSchema,
		}, generator, config.Timeout, log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input agent.Input
	camunda.RunJob(client, job, camunda.JobOptions{
		Timeout: h.config.Timeout + 5*time.Second,
		Schema:  agent.InputSchema,
		Logger:  h.logger,
	}, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input), nil
	})
}

// Execute always returns a complete result; failures yield Default().
func (h *Handler) Execute(ctx context.Context, input *agent.Input) *Output {
	started := time.Now()

	out := withOptionalDefaults()
	if err := h.agent.Ask(ctx, input.Ticket.ID, buildPrompt(input), out); err != nil {
		out = Default()
	} else {
		out.Source = metrics.SourceParsed
		if out.KeyPoints == nil {
			out.KeyPoints = []string{}
		}
		if out.SimilarTickets == nil {
			out.SimilarTickets = []string{}
		}
	}

	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}

func buildPrompt(input *agent.Input) string {
	f := agent.PromptFields(input.Ticket)
	return fmt.Sprintf(`Ticket #%s
Subject: %s
Description: %s
From: %s (%s)
Category: %s
Priority: %s
Status: %s

Historical Context:
%s

Please analyze this ticket and provide:
1. A clear summary of the issue
2. Key points that need attention
3. The customer's sentiment
4. Similar historical tickets if any
5. Your confidence in the analysis`,
		f.ID, f.Subject, f.Description, f.CustomerName, f.CustomerEmail,
		f.Category, f.Priority, f.Status, agent.ContextOrDefault(input.HistoricalContext))
}
