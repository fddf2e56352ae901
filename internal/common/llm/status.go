package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
)

// NewFromConfig builds the client selected by llm.provider.
func NewFromConfig(cfg *config.Config, log logger.Logger) (Client, error) {
	llmCfg := cfg.LLM
	timeout := config.GetDuration(llmCfg.Timeout)
	statusTimeout := config.GetDuration(llmCfg.StatusTimeout)

	switch llmCfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaClient(llmCfg.BaseURL, llmCfg.Model, timeout, statusTimeout, log), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(llmCfg.APIKey, llmCfg.Model, llmCfg.MaxTokens, timeout, statusTimeout, log), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", llmCfg.Provider)
	}
}

// Status is the last observed state of the LLM backend.
type Status struct {
	Connected    bool      `json:"connected"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Models       []string  `json:"models"`
	LastChecked  time.Time `json:"lastChecked"`
	ResponseTime int64     `json:"responseTime,omitempty"`
	// StatusCode is set when the backend answered with a non-success status.
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StatusMonitor probes the backend on a cron schedule and keeps the latest Status.
type StatusMonitor struct {
	client   Client
	schedule cron.Schedule
	logger   logger.Logger

	mu   sync.RWMutex
	last Status
}

// NewStatusMonitor parses a standard 5-field cron expression.
func NewStatusMonitor(client Client, spec string, log logger.Logger) (*StatusMonitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid status schedule %q: %w", spec, err)
	}
	return &StatusMonitor{
		client:   client,
		schedule: schedule,
		logger:   log.With(map[string]interface{}{"component": "llm-status"}),
		last: Status{
			Provider: client.Provider(),
			Model:    client.Model(),
			Models:   []string{},
		},
	}, nil
}

// Check probes the backend once and records the result.
func (m *StatusMonitor) Check(ctx context.Context) Status {
	started := time.Now()
	models, err := m.client.ListModels(ctx)

	st := Status{
		Connected:    err == nil,
		Provider:     m.client.Provider(),
		Model:        m.client.Model(),
		Models:       models,
		LastChecked:  time.Now().UTC(),
		ResponseTime: time.Since(started).Milliseconds(),
	}
	if st.Models == nil {
		st.Models = []string{}
	}
	if err != nil {
		st.Error = err.Error()
		var se *BadStatusError
		if errors.As(err, &se) {
			st.StatusCode = se.StatusCode
		}
		metrics.LLMUp.Set(0)
		m.logger.Warn("llm status probe failed", map[string]interface{}{"error": err.Error()})
	} else {
		metrics.LLMUp.Set(1)
	}

	m.mu.Lock()
	m.last = st
	m.mu.Unlock()
	return st
}

func (m *StatusMonitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Run checks immediately, then on every scheduled tick until ctx is done.
func (m *StatusMonitor) Run(ctx context.Context) {
	m.Check(ctx)
	for {
		now := time.Now()
		next := m.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.Check(ctx)
		}
	}
}
