// internal/workers/triage/analyze-sentiment/handler.go
package analyzesentiment

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ticket-triage/internal/common/camunda"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/workers/triage/agent"
)

const TaskType = "analyze-sentiment"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input agent.Input
	camunda.RunJob(client, job, camunda.JobOptions{
		Timeout: h.config.Timeout,
		Schema:  agent.InputSchema,
		Logger:  h.logger,
	}, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input), nil
	})
}

func (h *Handler) Execute(_ context.Context, input *agent.Input) *Output {
	started := time.Now()
	out := Analyze(input.Ticket.Subject, input.Ticket.Description)
	agent.Observe(TaskType, out.Source, started, h.logger, input.Ticket.ID)
	return out
}
