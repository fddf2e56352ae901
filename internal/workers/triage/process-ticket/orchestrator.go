// internal/workers/triage/process-ticket/orchestrator.go
package processticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/common/observability"
	"ticket-triage/internal/contextselector"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/workers/triage/agent"
	analyzesentiment "ticket-triage/internal/workers/triage/analyze-sentiment"
	estimateresolutiontime "ticket-triage/internal/workers/triage/estimate-resolution-time"
	extractactions "ticket-triage/internal/workers/triage/extract-actions"
	recommendresolution "ticket-triage/internal/workers/triage/recommend-resolution"
	routeticket "ticket-triage/internal/workers/triage/route-ticket"
	summarizeticket "ticket-triage/internal/workers/triage/summarize-ticket"
)

const TaskType = "process-ticket"

const (
	OutcomeCompleted = "completed"
	OutcomeFallback  = "fallback"
)

const (
	StageInitialAnalysis   = "initial-analysis"
	StageActionsAndRouting = "actions-and-routing"
	StageResolutionPlan    = "resolution-planning"
)

type Summarizer interface {
	Execute(ctx context.Context, input *agent.Input) *summarizeticket.Output
}

type SentimentAnalyzer interface {
	Execute(ctx context.Context, input *agent.Input) *analyzesentiment.Output
}

type ActionExtractor interface {
	Execute(ctx context.Context, input *agent.Input) *extractactions.Output
}

type Router interface {
	Execute(ctx context.Context, input *agent.Input) *routeticket.Output
}

type TimeEstimator interface {
	Execute(ctx context.Context, input *agent.Input) *estimateresolutiontime.Output
}

type Recommender interface {
	Execute(ctx context.Context, input *agent.Input) *recommendresolution.Output
}

// Agents is the set of analyses one pipeline run drives.
type Agents struct {
	Summarizer    Summarizer
	Sentiment     SentimentAnalyzer
	Actions       ActionExtractor
	Router        Router
	TimeEstimator TimeEstimator
	Recommender   Recommender
}

// NewAgents builds the production agents around one shared generator.
func NewAgents(cfg *config.Config, generator llm.Generator, log logger.Logger) Agents {
	return Agents{
		Summarizer:    summarizeticket.NewHandler(summarizeticket.ConfigFromApp(cfg), generator, log),
		Sentiment:     analyzesentiment.NewHandler(analyzesentiment.ConfigFromApp(cfg), log),
		Actions:       extractactions.NewHandler(extractactions.ConfigFromApp(cfg), generator, log),
		Router:        routeticket.NewHandler(routeticket.ConfigFromApp(cfg), generator, log),
		TimeEstimator: estimateresolutiontime.NewHandler(estimateresolutiontime.ConfigFromApp(cfg), generator, log),
		Recommender:   recommendresolution.NewHandler(recommendresolution.ConfigFromApp(cfg), generator, log),
	}
}

type Orchestrator struct {
	config *Config
	agents Agents
	corpus *corpus.Corpus
	obs    *observability.Observability
	logger logger.Logger
}

type Option func(*Orchestrator)

// WithCorpus makes the pipeline select historical context itself when a request carries none.
func WithCorpus(c *corpus.Corpus) Option {
	return func(o *Orchestrator) { o.corpus = c }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func NewOrchestrator(config *Config, agents Agents, log logger.Logger, opts ...Option) *Orchestrator {
	if config == nil {
		config = LoadConfig()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	o := &Orchestrator{
		config: config,
		agents: agents,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// step is one agent call inside a stage. fallback installs the agent's default.
type step struct {
	name     string
	run      func(ctx context.Context)
	fallback func()
}

// Execute runs the three stages in order, two agents at a time. It never returns nil and never
// returns an error: a failing agent contributes its default, and a failure of the run itself
// yields Fallback with the error message set.
func (o *Orchestrator) Execute(ctx context.Context, input *agent.Input) (result *AggregateResult) {
	started := time.Now()
	ctx, span := o.obs.Tracer().Start(ctx, "pipeline."+TaskType)
	defer span.End()

	var ticketID string
	defer func() {
		if r := recover(); r != nil {
			result = o.fail(ctx, span, started, ticketID, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	if input == nil {
		return o.fail(ctx, span, started, "", errors.New("No ticket data provided"))
	}
	ticketID = input.Ticket.ID
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	input = o.withContext(input)
	res := &AggregateResult{}

	stages := []struct {
		name  string
		steps []step
	}{
		{StageInitialAnalysis, []step{
			{summarizeticket.TaskType,
				func(ctx context.Context) { res.Summary = o.agents.Summarizer.Execute(ctx, input) },
				func() { res.Summary = summarizeticket.Default() }},
			{analyzesentiment.TaskType,
				func(ctx context.Context) { res.Sentiment = o.agents.Sentiment.Execute(ctx, input) },
				func() { res.Sentiment = analyzesentiment.Default() }},
		}},
		{StageActionsAndRouting, []step{
			{extractactions.TaskType,
				func(ctx context.Context) { res.Actions = o.agents.Actions.Execute(ctx, input) },
				func() { res.Actions = extractactions.Default() }},
			{routeticket.TaskType,
				func(ctx context.Context) { res.Routing = o.agents.Router.Execute(ctx, input) },
				func() { res.Routing = routeticket.Default() }},
		}},
		{StageResolutionPlan, []step{
			{estimateresolutiontime.TaskType,
				func(ctx context.Context) { res.TimeEstimation = o.agents.TimeEstimator.Execute(ctx, input) },
				func() { res.TimeEstimation = estimateresolutiontime.Default() }},
			{recommendresolution.TaskType,
				func(ctx context.Context) { res.Recommendations = o.agents.Recommender.Execute(ctx, input) },
				func() { res.Recommendations = recommendresolution.Default() }},
		}},
	}

	for _, stage := range stages {
		if err := o.runStage(ctx, ticketID, stage.name, stage.steps); err != nil {
			return o.fail(ctx, span, started, ticketID, err)
		}
	}
	fillMissing(res)

	elapsed := time.Since(started)
	res.Metadata = &Metadata{
		ProcessingTime: elapsed.Seconds(),
		Timestamp:      time.Now().Format(TimestampLayout),
		ModelUsed:      o.config.ModelName,
	}

	o.record(ctx, elapsed, OutcomeCompleted)
	o.logger.Info("ticket processed", map[string]interface{}{
		"ticketId":   ticketID,
		"durationMs": elapsed.Milliseconds(),
	})
	return res
}

// runStage starts every step concurrently and waits for all of them. It fails only when the
// caller's context ended while the stage was running.
func (o *Orchestrator) runStage(ctx context.Context, ticketID, name string, steps []step) error {
	ctx, span := o.obs.Tracer().Start(ctx, "stage."+name)
	defer span.End()

	var wg sync.WaitGroup
	for _, s := range steps {
		wg.Add(1)
		go func(s step) {
			defer wg.Done()
			o.runStep(ctx, ticketID, name, s)
		}(s)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("stage %s: %w", name, err)
	}
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, ticketID, stage string, s step) {
	ctx, span := o.obs.Tracer().Start(ctx, "agent."+s.name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.fallback()
			span.SetStatus(codes.Error, "agent panicked")
			o.logger.Error("agent panicked, using default", map[string]interface{}{
				"ticketId": ticketID,
				"stage":    stage,
				"agent":    s.name,
				"error":    fmt.Sprint(r),
			})
		}
	}()
	s.run(ctx)
}

func (o *Orchestrator) withContext(input *agent.Input) *agent.Input {
	if o.corpus == nil || strings.TrimSpace(input.HistoricalContext) != "" {
		return input
	}
	selected := *input
	selected.HistoricalContext = contextselector.Select(input.Ticket, o.corpus)
	return &selected
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, started time.Time, ticketID string, err error) *AggregateResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	elapsed := time.Since(started)
	o.record(ctx, elapsed, OutcomeFallback)
	o.logger.Error("pipeline failed, returning defaults", map[string]interface{}{
		"ticketId":   ticketID,
		"durationMs": elapsed.Milliseconds(),
		"error":      err.Error(),
	})
	return Fallback(err.Error())
}

func (o *Orchestrator) record(ctx context.Context, elapsed time.Duration, outcome string) {
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	o.obs.RecordPipelineProcessed(ctx, outcome)
	o.obs.RecordPipelineDuration(ctx, elapsed, outcome)
}

// fillMissing covers agents that returned nil instead of a result.
func fillMissing(res *AggregateResult) {
	if res.Summary == nil {
		res.Summary = summarizeticket.Default()
	}
	if res.Sentiment == nil {
		res.Sentiment = analyzesentiment.Default()
	}
	if res.Actions == nil {
		res.Actions = extractactions.Default()
	}
	if res.Routing == nil {
		res.Routing = routeticket.Default()
	}
	if res.TimeEstimation == nil {
		res.TimeEstimation = estimateresolutiontime.Default()
	}
	if res.Recommendations == nil {
		res.Recommendations = recommendresolution.Default()
	}
}
