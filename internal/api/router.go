// Package api exposes the triage service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ticket-triage/internal/common/database"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/models"
	"ticket-triage/internal/tickets"
	"ticket-triage/internal/workers/triage/agent"
	processticket "ticket-triage/internal/workers/triage/process-ticket"
	"ticket-triage/pkg/registry"
)

// Pipeline runs the full analysis for one ticket. It never fails; problems show up in the
// aggregate's error field.
type Pipeline interface {
	Execute(ctx context.Context, input *agent.Input) *processticket.AggregateResult
}

type TicketService interface {
	List(ctx context.Context) ([]models.Ticket, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error)
	History(ctx context.Context, id string) (*models.TicketHistory, error)
	Stats(ctx context.Context) (*models.TicketStats, error)
}

type AnalysisCache interface {
	Save(ctx context.Context, ticketID string, analysis interface{}) error
	Load(ctx context.Context, ticketID string) (json.RawMessage, error)
}

type EventPublisher interface {
	PublishAnalysis(ctx context.Context, ticketID, outcome string, analysis interface{}) error
}

type StatusChecker interface {
	Check(ctx context.Context) llm.Status
	Snapshot() llm.Status
}

// ReadinessCheck is one backend consulted by /ready.
type ReadinessCheck struct {
	Name   string
	Pinger database.Pinger
}

// Config holds router dependencies. Analyses, Events, Registry and MetricsHandler are optional.
type Config struct {
	Logger         logger.Logger
	Pipeline       Pipeline
	Tickets        TicketService
	Knowledge      tickets.KnowledgeBase
	Corpus         *corpus.Corpus
	Status         StatusChecker
	Analyses       AnalysisCache
	Events         EventPublisher
	Registry       *registry.AgentRegistry
	WorkerEnabled  func(taskType string) bool
	Readiness      []ReadinessCheck
	MetricsHandler http.Handler
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type handler struct {
	cfg    *Config
	logger logger.Logger
}

// NewRouter builds the chi router with all routes configured.
func NewRouter(cfg *Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Corpus == nil {
		cfg.Corpus = corpus.Empty()
	}
	h := &handler{cfg: cfg, logger: cfg.Logger.With(map[string]interface{}{"component": "api"})}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/", h.index)
	r.Get("/status", h.status)
	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/historical-data", h.historicalData)
	r.Get("/conversations", h.conversations)
	r.Post("/process-ticket", h.processTicket)

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.listTickets)
		r.Post("/", h.createTicket)
		r.Get("/stats", h.ticketStats)
		r.Route("/{ticketID}", func(r chi.Router) {
			r.Get("/", h.getTicket)
			r.Get("/history", h.ticketHistory)
			r.Get("/analysis", h.ticketAnalysis)
		})
	})

	r.Route("/knowledge-base", func(r chi.Router) {
		r.Get("/", h.listArticles)
		r.Get("/{articleID}", h.getArticle)
	})

	r.Get("/agents", h.agents)
	r.Get("/agents/status", h.agentsStatus)

	return r
}
