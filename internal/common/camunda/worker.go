// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every triage worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Name(fmt.Sprintf("%s-worker", taskType)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
		"timeout":       timeout.String(),
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}

// JobOptions controls how RunJob treats one activated job.
type JobOptions struct {
	Timeout time.Duration
	Schema  *validation.Schema
	Logger  logger.Logger
}

// RunJob decodes the job variables into input, checks them against opts.Schema, runs exec
// under opts.Timeout and completes the job with the returned variables. Any error is handed
// to errors.ErrorHandler, which retries or throws it to the process.
func RunJob(
	client worker.JobClient,
	job entities.Job,
	opts JobOptions,
	input interface{},
	exec func(ctx context.Context) (interface{}, error),
) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	errHandler := errors.NewErrorHandler(log)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := decodeVariables(job.Variables, opts.Schema, input); err != nil {
		errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := exec(ctx)
	if err != nil {
		errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		log.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func decodeVariables(variables string, schema *validation.Schema, input interface{}) error {
	if schema != nil {
		result := schema.ValidateJSON([]byte(variables))
		if !result.Valid {
			return errors.NewValidationFailedError(fmt.Sprintf("%v", result.GetErrorMessages()))
		}
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return errors.NewValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return nil
}
