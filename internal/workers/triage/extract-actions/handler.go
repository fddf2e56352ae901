// internal/workers/triage/extract-actions/handler.go
package extractactions

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

const TaskType = "extract-actions"

const systemPrompt = `You are an expert action identifier for customer support.
Analyze the ticket and extract 2-4 specific actions needed to resolve it.
Each action should have a type, priority, and description.
Format your response as JSON with this structure:
{
  "actions": [
    {
      "type": "investigation",
      "priority": "high",
      "description": "Details of what needs to be investigated"
    }
  ]
}`

var outputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"actions"},
	"properties": map[string]interface{}{
		"actions": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
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

// Execute never fails. An empty actions list from the model is kept; a null one is unusable.
func (h *Handler) Execute(ctx context.Context, input *agent.Input) *Output {
	started := time.Now()

	out := &Output{}
	prompt := agent.PromptFields(input.Ticket).Header()
	if err := h.agent.Ask(ctx, input.Ticket.ID, prompt, out); err != nil {
		out = Default()
	} else {
		out.Source = metrics.SourceParsed
		if out.Actions == nil {
			out.Actions = []Action{}
		}
	}

	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}
