// internal/workers/triage/process-ticket/config.go
package processticket

import (
	"time"

	"ticket-triage/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	// Timeout bounds one job; the three stages each wait on at most two model calls.
	Timeout   time.Duration
	ModelName string
}

func LoadConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120 * time.Second,
		ModelName:     "llama3",
	}
}

func ConfigFromApp(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	c := LoadConfig()
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if llmTimeout := config.GetDuration(cfg.LLM.Timeout); llmTimeout > 0 {
		c.Timeout = 3*llmTimeout + 10*time.Second
	}
	if cfg.LLM.Model != "" {
		c.ModelName = cfg.LLM.Model
	}
	return c
}
