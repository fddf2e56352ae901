// internal/workers/triage/estimate-resolution-time/handler.go
package estimateresolutiontime

import (
	"context"
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

const TaskType = "estimate-resolution-time"

const systemPrompt = `You are a support resolution time estimator.
Analyze the ticket and estimate how long it will take to resolve.
Consider complexity, clarity of the issue, and any historical data.
Format your response as JSON with this structure:
{
  "estimatedMinutes": 45,
  "confidence": 0.7,
  "factors": [
    {"name": "Technical complexity", "impact": 0.3},
    {"name": "Clear reproduction steps", "impact": -0.1}
  ]
}`

var outputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"estimatedMinutes"},
	"properties": map[string]interface{}{
		"estimatedMinutes": map[string]interface{}{"type": "number"},
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

func (h *Handler) Execute(ctx context.Context, input *agent.Input) *Output {
	started := time.Now()

	out := withOptionalDefaults()
	if err := h.agent.Ask(ctx, input.Ticket.ID, buildPrompt(input), out); err != nil {
		out = Default()
	} else {
		out.Source = metrics.SourceParsed
	}

	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}

func buildPrompt(input *agent.Input) string {
	return agent.PromptFields(input.Ticket).Header() +
		"\nHistorical Context:\n" + agent.ContextOrDefault(input.HistoricalContext)
}
