// cmd/triage-server/workers.go
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ticket-triage/internal/api"
	"ticket-triage/internal/common/camunda"
	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/database"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/logger"
	analyzesentiment "ticket-triage/internal/workers/triage/analyze-sentiment"
	estimateresolutiontime "ticket-triage/internal/workers/triage/estimate-resolution-time"
	extractactions "ticket-triage/internal/workers/triage/extract-actions"
	processticket "ticket-triage/internal/workers/triage/process-ticket"
	recommendresolution "ticket-triage/internal/workers/triage/recommend-resolution"
	routeticket "ticket-triage/internal/workers/triage/route-ticket"
	summarizeticket "ticket-triage/internal/workers/triage/summarize-ticket"
)

// jobLeaseMargin is added to a worker's own timeout so Zeebe does not reassign a job that is
// still running.
const jobLeaseMargin = 10 * time.Second

type registration struct {
	taskType      string
	enabled       bool
	maxJobsActive int
	timeout       time.Duration
	handler       camunda.JobHandler
}

func registrations(cfg *config.Config, generator llm.Generator, orch *processticket.Orchestrator, log logger.Logger) []registration {
	sum := summarizeticket.ConfigFromApp(cfg)
	sen := analyzesentiment.ConfigFromApp(cfg)
	act := extractactions.ConfigFromApp(cfg)
	rt := routeticket.ConfigFromApp(cfg)
	est := estimateresolutiontime.ConfigFromApp(cfg)
	rec := recommendresolution.ConfigFromApp(cfg)
	proc := processticket.ConfigFromApp(cfg)

	return []registration{
		{summarizeticket.TaskType, sum.Enabled, sum.MaxJobsActive, sum.Timeout, summarizeticket.NewHandler(sum, generator, log)},
		{analyzesentiment.TaskType, sen.Enabled, sen.MaxJobsActive, sen.Timeout, analyzesentiment.NewHandler(sen, log)},
		{extractactions.TaskType, act.Enabled, act.MaxJobsActive, act.Timeout, extractactions.NewHandler(act, generator, log)},
		{routeticket.TaskType, rt.Enabled, rt.MaxJobsActive, rt.Timeout, routeticket.NewHandler(rt, generator, log)},
		{estimateresolutiontime.TaskType, est.Enabled, est.MaxJobsActive, est.Timeout, estimateresolutiontime.NewHandler(est, generator, log)},
		{recommendresolution.TaskType, rec.Enabled, rec.MaxJobsActive, rec.Timeout, recommendresolution.NewHandler(rec, generator, log)},
		{processticket.TaskType, proc.Enabled, proc.MaxJobsActive, proc.Timeout, orch},
	}
}

// startWorkers connects to Zeebe and opens one job worker per enabled task type.
func startWorkers(ctx context.Context, cfg *config.Config, generator llm.Generator, orch *processticket.Orchestrator, log logger.Logger, zapLog *zap.Logger) (*camunda.Client, []*camunda.CamundaWorker, *api.ReadinessCheck) {
	var client *camunda.Client
	err := database.WaitFor(ctx, "Zeebe client", pingFunc(func(context.Context) error {
		var err error
		client, err = camunda.NewClient(cfg.Camunda)
		return err
	}), 10, 2*time.Second, log)
	if err != nil {
		zapLog.Error("zeebe unavailable, workflow workers not started", zap.Error(err))
		return nil, nil, nil
	}
	zapLog.Info("Zeebe client connected successfully")

	var workers []*camunda.CamundaWorker
	for _, r := range registrations(cfg, generator, orch, log) {
		if !r.enabled {
			zapLog.Info("worker disabled", zap.String("taskType", r.taskType))
			continue
		}
		workers = append(workers, camunda.NewWorker(
			client.GetClient(), r.taskType, r.maxJobsActive, r.timeout+jobLeaseMargin, r.handler, log,
		))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	return client, workers, &api.ReadinessCheck{Name: "zeebe", Pinger: pingFunc(client.HealthCheck)}
}
