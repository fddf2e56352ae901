// internal/workers/triage/route-ticket/handler.go
package routeticket

import (
	"context"
	"errors"
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

const TaskType = "route-ticket"

const systemPrompt = `You are a ticket routing specialist.
Analyze the ticket and determine which team it should be routed to.
Choose from: technical-support, billing, account-management, product-feedback, security, legal
Format your response as JSON with this structure:
{
  "recommendedTeam": "technical-support",
  "confidence": 0.85,
  "reasoning": "Explanation of why this team is appropriate"
}`

var outputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"recommendedTeam"},
	"properties": map[string]interface{}{
		"recommendedTeam": map[string]interface{}{"type": "string", "enum": teamEnum()},
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

// Execute never fails. The fallback's reasoning tells a failed call apart from an unusable reply.
func (h *Handler) Execute(ctx context.Context, input *agent.Input) *Output {
	started := time.Now()

	out := withOptionalDefaults()
	err := h.agent.Ask(ctx, input.Ticket.ID, buildPrompt(input), out)
	switch {
	case err == nil:
		out.Source = metrics.SourceParsed
	case errors.Is(err, agent.ErrCallFailed):
		out = withReason(reasonAPIError)
	default:
		out = withReason(reasonParseError)
	}

	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}

func buildPrompt(input *agent.Input) string {
	status := input.Ticket.Status
	if status == "" {
		status = "Unknown"
	}
	return agent.PromptFields(input.Ticket).Header() + "Status: " + status + "\n"
}
