// internal/workers/triage/process-ticket/handler.go
package processticket

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ticket-triage/internal/common/camunda"
	"ticket-triage/internal/workers/triage/agent"
)

// Handle runs the whole pipeline for one workflow job. A fallback aggregate still completes the
// job; the process can branch on its error variable.
func (o *Orchestrator) Handle(client worker.JobClient, job entities.Job) {
	var input agent.Input
	camunda.RunJob(client, job, camunda.JobOptions{
		Timeout: o.config.Timeout,
		Schema:  agent.InputSchema,
		Logger:  o.logger,
	}, &input, func(ctx context.Context) (interface{}, error) {
		return o.Execute(ctx, &input), nil
	})
}
