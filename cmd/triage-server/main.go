// cmd/triage-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ticket-triage/internal/api"
	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/llm"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/observability"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/tickets"
	processticket "ticket-triage/internal/workers/triage/process-ticket"
	"ticket-triage/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ticket triage service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Reference corpus ---
	c, err := corpus.Load(cfg.Data.Dir, cfg.Data.HistoricalFile, cfg.Data.ConversationDir, log)
	if err != nil {
		zapLog.Error("corpus load failed, continuing without historical context", zap.Error(err))
		c = corpus.Empty()
	}

	// --- Optional backends ---
	b := connectBackends(ctx, cfg, log, zapLog)
	defer b.Close(zapLog)

	// --- Model + agents ---
	client, err := llm.NewFromConfig(cfg, log)
	if err != nil {
		zapLog.Fatal("llm client setup failed", zap.Error(err))
	}

	monitor, err := llm.NewStatusMonitor(client, cfg.LLM.StatusSchedule, log)
	if err != nil {
		zapLog.Fatal("llm status monitor setup failed", zap.Error(err))
	}
	go monitor.Run(ctx)

	procCfg := processticket.ConfigFromApp(cfg)
	orch := processticket.NewOrchestrator(procCfg,
		processticket.NewAgents(cfg, client, log), log,
		processticket.WithCorpus(c),
		processticket.WithObservability(obs),
	)

	reg, err := registry.LoadRegistry(cfg.Data.RegistryPath)
	if err != nil {
		zapLog.Warn("agent registry unavailable", zap.Error(err))
	}

	// --- Zeebe workers ---
	readiness := b.readiness
	if cfg.Camunda.Enabled {
		zc, workers, check := startWorkers(ctx, cfg, client, orch, log, zapLog)
		if zc != nil {
			defer zc.Close()
			defer func() {
				for _, w := range workers {
					w.Stop()
				}
			}()
			readiness = append(readiness, *check)
		}
	}

	// --- HTTP ---
	requestTimeout := procCfg.Timeout + 5*time.Second
	writeTimeout := cfg.Server.WriteDeadline(requestTimeout)
	if writeTimeout > config.GetDuration(cfg.Server.WriteTimeout) {
		zapLog.Warn("server.write_timeout raised to cover the pipeline deadline",
			zap.Duration("writeTimeout", writeTimeout))
	}
	routerCfg := &api.Config{
		Logger:         log,
		Pipeline:       orch,
		Tickets:        tickets.NewService(b.repo, c, log),
		Knowledge:      b.knowledge,
		Corpus:         c,
		Status:         monitor,
		Registry:       reg,
		WorkerEnabled:  func(taskType string) bool { return config.IsWorkerEnabled(cfg, taskType) },
		Readiness:      readiness,
		MetricsHandler: promhttp.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: requestTimeout,
	}
	if b.analyses != nil {
		routerCfg.Analyses = b.analyses
	}
	if b.events != nil {
		routerCfg.Events = b.events
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: writeTimeout,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
