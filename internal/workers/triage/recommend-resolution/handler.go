// internal/workers/triage/recommend-resolution/handler.go
package recommendresolution

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
	"ticket-triage/internal/contextselector"
	"ticket-triage/internal/workers/triage/agent"
)

const TaskType = "recommend-resolution"

const systemPrompt = `You are a support resolution specialist with access to historical cases.
Analyze the ticket and historical data to recommend potential resolutions.
Provide 1-3 suggested resolutions with clear steps.
Keep your responses concise and actionable.
Format your response as JSON with this structure:
{
  "suggestedResolutions": [
    {
      "title": "Title of the resolution approach",
      "steps": ["Step 1", "Step 2", "Step 3"],
      "confidence": 0.85,
      "source": "Based on historical case #TECH_021"
    }
  ]
}`

var outputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"suggestedResolutions"},
	"properties": map[string]interface{}{
		"suggestedResolutions": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
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

	out := &Output{}
	if err := h.agent.Ask(ctx, input.Ticket.ID, buildPrompt(input), out); err != nil {
		out = Default()
	} else {
		out.Source = metrics.SourceParsed
		if out.SuggestedResolutions == nil {
			out.SuggestedResolutions = []Resolution{}
		}
		for i := range out.SuggestedResolutions {
			if out.SuggestedResolutions[i].Steps == nil {
				out.SuggestedResolutions[i].Steps = []string{}
			}
		}
	}

	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}

// buildPrompt sends the condensed form of the context: past solutions and short exchanges only.
func buildPrompt(input *agent.Input) string {
	return agent.PromptFields(input.Ticket).Header() +
		"\nHistorical Context:\n" + contextselector.Condense(input.HistoricalContext)
}
