// cmd/triage-server/backends.go
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ticket-triage/internal/api"
	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/database"
	"ticket-triage/internal/common/events"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/tickets"
)

// pingFunc adapts a connect-and-check closure to database.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// backends holds the optional stores. Disabled or unreachable ones fall back to in-memory
// implementations, or are left nil where the API treats them as optional.
type backends struct {
	repo      tickets.Repository
	knowledge tickets.KnowledgeBase
	analyses  *tickets.AnalysisStore
	events    *events.Producer
	readiness []api.ReadinessCheck
	closers   []func() error
}

func (b *backends) Close(zapLog *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			zapLog.Warn("close failed", zap.Error(err))
		}
	}
}

func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *backends {
	b := &backends{
		repo:      tickets.NewMemoryRepository(),
		knowledge: tickets.NewMemoryKnowledgeBase(nil),
	}

	// --- PostgreSQL ---
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err := database.WaitFor(ctx, "PostgreSQL", pingFunc(func(ctx context.Context) error {
			var err error
			if pg == nil {
				if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
					return err
				}
			}
			return pg.Ping(ctx)
		}), 15, 2*time.Second, log)

		switch {
		case err != nil:
			zapLog.Error("postgres unavailable, using in-memory ticket store", zap.Error(err))
			if pg != nil {
				_ = pg.Close()
			}
		default:
			repo := tickets.NewPostgresRepository(pg.DB)
			if err := repo.EnsureSchema(ctx); err != nil {
				zapLog.Error("tickets schema setup failed, using in-memory ticket store", zap.Error(err))
				_ = pg.Close()
				break
			}
			b.repo = repo
			b.readiness = append(b.readiness, api.ReadinessCheck{Name: "postgres", Pinger: pg})
			b.closers = append(b.closers, pg.Close)
			zapLog.Info("PostgreSQL connected successfully")
		}
	}

	// --- Elasticsearch ---
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = database.WaitFor(ctx, "Elasticsearch", es, 15, 2*time.Second, log)
		}
		if err != nil {
			zapLog.Error("elasticsearch unavailable, using built-in knowledge base", zap.Error(err))
		} else {
			index := cfg.Database.Elasticsearch.KnowledgeIndex
			kb := tickets.NewElasticKnowledgeBase(es.Client, index)
			created, err := es.EnsureIndex(ctx, index, tickets.KnowledgeIndexMapping)
			if err != nil {
				zapLog.Warn("knowledge index setup failed", zap.Error(err))
			} else if err := kb.Seed(ctx, tickets.DefaultArticles()); err != nil {
				zapLog.Warn("knowledge base seeding failed", zap.Error(err))
			} else {
				zapLog.Info("knowledge base ready", zap.String("index", index), zap.Bool("created", created))
			}
			b.knowledge = kb
			b.readiness = append(b.readiness, api.ReadinessCheck{Name: "elasticsearch", Pinger: es})
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Redis ---
	if cfg.Database.Redis.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := database.WaitFor(ctx, "Redis", rdb, 10, 2*time.Second, log); err != nil {
			zapLog.Error("redis unavailable, analyses will not be cached", zap.Error(err))
			_ = rdb.Close()
		} else {
			b.analyses = tickets.NewAnalysisStore(rdb.Client, config.GetDuration(cfg.Database.Redis.AnalysisTTL))
			b.readiness = append(b.readiness, api.ReadinessCheck{Name: "redis", Pinger: rdb})
			b.closers = append(b.closers, rdb.Close)
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Kafka ---
	if cfg.Kafka.Enabled {
		pinger := events.BrokerPinger{Brokers: cfg.Kafka.Brokers}
		if err := database.WaitFor(ctx, "Kafka", pinger, 10, 2*time.Second, log); err != nil {
			zapLog.Error("kafka unavailable, analysis events disabled", zap.Error(err))
		} else {
			b.events = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AnalysisTopic, log)
			b.readiness = append(b.readiness, api.ReadinessCheck{Name: "kafka", Pinger: pinger})
			b.closers = append(b.closers, b.events.Close)
			zapLog.Info("Kafka producer ready", zap.String("topic", cfg.Kafka.AnalysisTopic))
		}
	}

	return b
}
