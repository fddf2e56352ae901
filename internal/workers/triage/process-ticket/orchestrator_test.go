// internal/workers/triage/process-ticket/orchestrator_test.go
package processticket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/llm/llmtest"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/common/observability"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/models"
	"ticket-triage/internal/workers/triage/agent"
	analyzesentiment "ticket-triage/internal/workers/triage/analyze-sentiment"
	estimateresolutiontime "ticket-triage/internal/workers/triage/estimate-resolution-time"
	extractactions "ticket-triage/internal/workers/triage/extract-actions"
	recommendresolution "ticket-triage/internal/workers/triage/recommend-resolution"
	routeticket "ticket-triage/internal/workers/triage/route-ticket"
	summarizeticket "ticket-triage/internal/workers/triage/summarize-ticket"
)

// System instruction fragments, one per model-backed agent.
const (
	summarizerPrompt  = "expert customer support summarizer"
	actionsPrompt     = "expert action identifier"
	routerPrompt      = "ticket routing specialist"
	estimatorPrompt   = "resolution time estimator"
	recommenderPrompt = "resolution specialist with access to historical cases"
)

// ==========================
// Test Helper Functions
// ==========================

func goodResponses() map[string]llmtest.Response {
	return map[string]llmtest.Response{
		summarizerPrompt:  {Text: `{"summary":"User cannot log in","keyPoints":["login"],"sentiment":"negative","similarTickets":[],"confidence":0.8}`},
		actionsPrompt:     {Text: `{"actions":[{"type":"investigation","priority":"high","description":"Check auth logs"}]}`},
		routerPrompt:      {Text: `{"recommendedTeam":"account-management","confidence":0.9,"reasoning":"Login problem"}`},
		estimatorPrompt:   {Text: `{"estimatedMinutes":20,"confidence":0.6}`},
		recommenderPrompt: {Text: `{"suggestedResolutions":[{"title":"Reset password","steps":["Send reset link"],"confidence":0.7}]}`},
	}
}

func createTestConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Model: "llama3", Timeout: 1000},
	}
}

func createTestOrchestrator(t *testing.T, gen llm.Generator, opts ...Option) *Orchestrator {
	cfg := createTestConfig()
	log := logger.NewTestLogger(t)
	return NewOrchestrator(ConfigFromApp(cfg), NewAgents(cfg, gen, log), log, opts...)
}

func loginTicket() *agent.Input {
	return &agent.Input{
		Ticket: models.Ticket{
			ID:           "T1",
			Subject:      "Login fails",
			Description:  "I CAN'T LOG IN!!! this is urgent",
			CustomerName: "Bob",
		},
	}
}

func assertAllKeysPresent(t *testing.T, res *AggregateResult) {
	t.Helper()
	require.NotNil(t, res)
	assert.NotNil(t, res.Summary)
	assert.NotNil(t, res.Sentiment)
	assert.NotNil(t, res.Actions)
	assert.NotNil(t, res.Routing)
	assert.NotNil(t, res.TimeEstimation)
	assert.NotNil(t, res.Recommendations)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"summary", "sentiment", "actions", "routing", "timeEstimation", "recommendations"} {
		assert.NotNil(t, doc[key], key)
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestOrchestrator_Execute(t *testing.T) {
	tests := []struct {
		name           string
		responses      func() map[string]llmtest.Response
		fallback       llmtest.Response
		validateOutput func(t *testing.T, res *AggregateResult)
	}{
		{
			name:      "all agents answer",
			responses: goodResponses,
			validateOutput: func(t *testing.T, res *AggregateResult) {
				assert.Empty(t, res.Error)
				assert.Equal(t, metrics.SourceParsed, res.Summary.Source)
				assert.Equal(t, metrics.SourceHeuristic, res.Sentiment.Source)
				assert.Equal(t, "Check auth logs", res.Actions.Actions[0].Description)
				assert.Equal(t, "account-management", res.Routing.RecommendedTeam)
				assert.Equal(t, 20.0, res.TimeEstimation.EstimatedMinutes)
				assert.Equal(t, "Reset password", res.Recommendations.SuggestedResolutions[0].Title)

				require.NotNil(t, res.Metadata)
				assert.Equal(t, "llama3", res.Metadata.ModelUsed)
				assert.GreaterOrEqual(t, res.Metadata.ProcessingTime, 0.0)
				_, err := time.Parse(TimestampLayout, res.Metadata.Timestamp)
				assert.NoError(t, err)
			},
		},
		{
			name:      "model backend unreachable",
			responses: func() map[string]llmtest.Response { return nil },
			fallback:  llmtest.Response{Err: llm.ErrLLMUnavailable},
			validateOutput: func(t *testing.T, res *AggregateResult) {
				assert.Empty(t, res.Error)
				assert.Equal(t, summarizeticket.Default(), res.Summary)
				assert.Equal(t, extractactions.Default(), res.Actions)
				assert.Equal(t, "technical-support", res.Routing.RecommendedTeam)
				assert.Equal(t, 0.5, res.Routing.Confidence)
				assert.Equal(t, "Default routing due to API error", res.Routing.Reasoning)
				assert.Equal(t, estimateresolutiontime.Default(), res.TimeEstimation)
				assert.Equal(t, recommendresolution.Default(), res.Recommendations)
				assert.Equal(t, metrics.SourceHeuristic, res.Sentiment.Source)
				assert.NotNil(t, res.Metadata)
			},
		},
		{
			name: "router gets HTTP 500",
			responses: func() map[string]llmtest.Response {
				r := goodResponses()
				r[routerPrompt] = llmtest.Response{Err: &llm.BadStatusError{StatusCode: 500}}
				return r
			},
			validateOutput: func(t *testing.T, res *AggregateResult) {
				assert.Equal(t, "technical-support", res.Routing.RecommendedTeam)
				assert.Equal(t, 0.5, res.Routing.Confidence)
				assert.Equal(t, "Default routing due to API error", res.Routing.Reasoning)
				assert.Equal(t, metrics.SourceParsed, res.Summary.Source)
				assert.Equal(t, metrics.SourceParsed, res.Actions.Source)
			},
		},
		{
			name: "fenced summarizer reply",
			responses: func() map[string]llmtest.Response {
				r := goodResponses()
				r[summarizerPrompt] = llmtest.Response{
					Text: "```json\n{\"summary\":\"Login broken\",\"keyPoints\":[\"auth\"],\"sentiment\":\"negative\"}\n```",
				}
				return r
			},
			validateOutput: func(t *testing.T, res *AggregateResult) {
				assert.Equal(t, metrics.SourceParsed, res.Summary.Source)
				assert.Equal(t, "Login broken", res.Summary.Summary)
				assert.Equal(t, []string{}, res.Summary.SimilarTickets)
				assert.Equal(t, 0.5, res.Summary.Confidence)
			},
		},
		{
			name:      "login ticket sentiment",
			responses: goodResponses,
			validateOutput: func(t *testing.T, res *AggregateResult) {
				assert.Contains(t, []string{analyzesentiment.SentimentNegative, analyzesentiment.SentimentNeutral},
					res.Sentiment.OverallSentiment)
				assert.Contains(t, res.Sentiment.Emotions, "urgency")
				assert.GreaterOrEqual(t, res.Sentiment.Intensity, 0.3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &llmtest.Reply{Responses: tt.responses(), Fallback: tt.fallback}

			res := createTestOrchestrator(t, gen).Execute(context.Background(), loginTicket())

			assertAllKeysPresent(t, res)
			tt.validateOutput(t, res)
		})
	}
}

func TestOrchestrator_ModelCallsPerRun(t *testing.T) {
	gen := &llmtest.Reply{Responses: goodResponses()}

	createTestOrchestrator(t, gen).Execute(context.Background(), loginTicket())

	assert.Len(t, gen.Prompts(), 5)
}

// ==========================
// Failure Isolation Tests
// ==========================

type panickingSummarizer struct{}

func (panickingSummarizer) Execute(context.Context, *agent.Input) *summarizeticket.Output {
	panic("summarizer exploded")
}

type nilRouter struct{}

func (nilRouter) Execute(context.Context, *agent.Input) *routeticket.Output { return nil }

func TestOrchestrator_AgentPanicUsesDefault(t *testing.T) {
	cfg := createTestConfig()
	agents := NewAgents(cfg, &llmtest.Reply{Responses: goodResponses()}, nil)
	agents.Summarizer = panickingSummarizer{}
	agents.Router = nilRouter{}

	res := NewOrchestrator(ConfigFromApp(cfg), agents, logger.NewTestLogger(t)).
		Execute(context.Background(), loginTicket())

	assertAllKeysPresent(t, res)
	assert.Empty(t, res.Error)
	assert.Equal(t, summarizeticket.Default(), res.Summary)
	assert.Equal(t, routeticket.Default(), res.Routing)
	assert.Equal(t, metrics.SourceParsed, res.Actions.Source)
}

func TestOrchestrator_MissingAgentUsesDefault(t *testing.T) {
	cfg := createTestConfig()
	agents := NewAgents(cfg, &llmtest.Reply{Responses: goodResponses()}, nil)
	agents.Recommender = nil

	res := NewOrchestrator(ConfigFromApp(cfg), agents, nil).Execute(context.Background(), loginTicket())

	assert.Empty(t, res.Error)
	assert.Equal(t, recommendresolution.Default(), res.Recommendations)
}

func TestOrchestrator_CancelledRunFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := createTestOrchestrator(t, &llmtest.Reply{Responses: goodResponses()}).Execute(ctx, loginTicket())

	assertAllKeysPresent(t, res)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "context canceled")
	assert.Nil(t, res.Metadata)
	assert.Equal(t, Fallback(res.Error), res)
}

func TestOrchestrator_NilInput(t *testing.T) {
	res := createTestOrchestrator(t, &llmtest.Reply{}).Execute(context.Background(), nil)

	assert.Equal(t, Fallback("No ticket data provided"), res)
}

func TestFallback_Serialization(t *testing.T) {
	raw, err := json.Marshal(Fallback("boom"))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.JSONEq(t, `"boom"`, string(doc["error"]))
	assert.JSONEq(t, `{"overallSentiment":"neutral","score":0.5,"emotions":{},"intensity":0.5}`, string(doc["sentiment"]))
	assert.JSONEq(t, `{"actions":[{"description":"Review ticket manually"}]}`, string(doc["actions"]))
	assert.JSONEq(t, `{"recommendedTeam":"technical-support","confidence":0.5}`, string(doc["routing"]))
	assert.JSONEq(t, `{"estimatedMinutes":30,"confidence":0.5}`, string(doc["timeEstimation"]))
	assert.JSONEq(t, `{"suggestedResolutions":[{"steps":["Please try again later"],"confidence":0.5}]}`, string(doc["recommendations"]))
	assert.NotContains(t, doc, "metadata")
}

// ==========================
// Stage Ordering Tests
// ==========================

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) index(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e == name {
			return i
		}
	}
	return -1
}

type fakeSummarizer struct{ r *recorder }

func (f fakeSummarizer) Execute(context.Context, *agent.Input) *summarizeticket.Output {
	time.Sleep(20 * time.Millisecond)
	f.r.add("summary")
	return summarizeticket.Default()
}

type fakeSentiment struct{ r *recorder }

func (f fakeSentiment) Execute(context.Context, *agent.Input) *analyzesentiment.Output {
	f.r.add("sentiment")
	return analyzesentiment.Default()
}

type fakeActions struct{ r *recorder }

func (f fakeActions) Execute(context.Context, *agent.Input) *extractactions.Output {
	f.r.add("actions")
	return extractactions.Default()
}

type fakeRouter struct{ r *recorder }

func (f fakeRouter) Execute(context.Context, *agent.Input) *routeticket.Output {
	f.r.add("routing")
	return routeticket.Default()
}

type fakeEstimator struct{ r *recorder }

func (f fakeEstimator) Execute(context.Context, *agent.Input) *estimateresolutiontime.Output {
	f.r.add("timeEstimation")
	return estimateresolutiontime.Default()
}

type fakeRecommender struct{ r *recorder }

func (f fakeRecommender) Execute(context.Context, *agent.Input) *recommendresolution.Output {
	f.r.add("recommendations")
	return recommendresolution.Default()
}

func TestOrchestrator_StagesRunInOrder(t *testing.T) {
	r := &recorder{}
	agents := Agents{
		Summarizer:    fakeSummarizer{r},
		Sentiment:     fakeSentiment{r},
		Actions:       fakeActions{r},
		Router:        fakeRouter{r},
		TimeEstimator: fakeEstimator{r},
		Recommender:   fakeRecommender{r},
	}

	res := NewOrchestrator(nil, agents, nil).Execute(context.Background(), loginTicket())
	require.Empty(t, res.Error)

	// the slow summarizer finishes after sentiment, yet stage two waits for it
	assert.Less(t, r.index("sentiment"), r.index("summary"))
	for _, later := range []string{"actions", "routing"} {
		assert.Greater(t, r.index(later), r.index("summary"), later)
	}
	for _, later := range []string{"timeEstimation", "recommendations"} {
		assert.Greater(t, r.index(later), r.index("actions"), later)
		assert.Greater(t, r.index(later), r.index("routing"), later)
	}
}

// ==========================
// Context Selection Tests
// ==========================

func TestOrchestrator_SelectsContextWhenMissing(t *testing.T) {
	c := corpus.New(
		[]models.HistoricalTicketRecord{{
			TicketID:         "ACC_001",
			IssueCategory:    "Login fails",
			Sentiment:        "Frustrated",
			Priority:         "High",
			Solution:         "Reset the password",
			ResolutionStatus: "Resolved",
		}},
		[]models.ConversationExample{{Category: "Login fails", Text: "Customer: locked out\nAgent: resetting now"}},
	)
	gen := &llmtest.Reply{Responses: goodResponses()}

	createTestOrchestrator(t, gen, WithCorpus(c)).Execute(context.Background(), loginTicket())

	joined := strings.Join(gen.Prompts(), "\n=====\n")
	assert.Contains(t, joined, "Case #1: ACC_001")
	assert.Contains(t, joined, "Historical Solutions:\n1. For Login fails: Reset the password")
	assert.Contains(t, joined, "Customer: locked out\nAgent: resetting now")
}

func TestOrchestrator_KeepsCallerContext(t *testing.T) {
	c := corpus.New([]models.HistoricalTicketRecord{{TicketID: "ACC_001", IssueCategory: "Login fails"}}, nil)
	gen := &llmtest.Reply{Responses: goodResponses()}
	input := loginTicket()
	input.HistoricalContext = "caller supplied notes"

	createTestOrchestrator(t, gen, WithCorpus(c)).Execute(context.Background(), input)

	joined := strings.Join(gen.Prompts(), "\n")
	assert.Contains(t, joined, "caller supplied notes")
	assert.NotContains(t, joined, "ACC_001")
	assert.Equal(t, "caller supplied notes", input.HistoricalContext)
}

// ==========================
// Tracing Tests
// ==========================

func TestOrchestrator_RecordsSpans(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	obs := observability.New("triage-test",
		observability.WithRegisterer(promclient.NewRegistry()),
		observability.WithSpanProcessor(spans),
		observability.WithoutGlobal(),
	)
	defer obs.Shutdown()

	createTestOrchestrator(t, &llmtest.Reply{Responses: goodResponses()}, WithObservability(obs)).
		Execute(context.Background(), loginTicket())

	names := map[string]int{}
	for _, s := range spans.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["pipeline.process-ticket"])
	assert.Equal(t, 1, names["stage.initial-analysis"])
	assert.Equal(t, 1, names["stage.actions-and-routing"])
	assert.Equal(t, 1, names["stage.resolution-planning"])
	assert.Equal(t, 1, names["agent.summarize-ticket"])
	assert.Equal(t, 1, names["agent.recommend-resolution"])
	assert.Len(t, spans.Ended(), 10)
}
