package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearLLMEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
}

// ==========================
// Defaults
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearLLMEnv(t)
	path := writeConfig(t, `
app:
  name: triage
workers:
  summarize-ticket:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "triage", cfg.App.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 30000, cfg.LLM.Timeout)
	assert.Equal(t, 5000, cfg.LLM.StatusTimeout)
	assert.Equal(t, "ticket.analyzed", cfg.Kafka.AnalysisTopic)
	assert.Equal(t, "Historical_ticket_data.csv", cfg.Data.HistoricalFile)
	assert.Equal(t, "knowledge-base", cfg.Database.Elasticsearch.KnowledgeIndex)

	worker := cfg.Workers["summarize-ticket"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OLLAMA_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_MODEL", "gemma3:4b")
	t.Setenv("TRIAGE_TEST_DB_HOST", "pg.internal")

	path := writeConfig(t, `
database:
  postgres:
    enabled: true
    host: ${TRIAGE_TEST_DB_HOST}
    database: triage
    user: triage
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "gemma3:4b", cfg.LLM.Model)
	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "host=pg.internal")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "sslmode=disable")
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown provider",
			body:    "llm:\n  provider: mystery\n",
			wantErr: "not supported",
		},
		{
			name:    "anthropic without key",
			body:    "llm:\n  provider: anthropic\n",
			wantErr: "llm.api_key",
		},
		{
			name:    "camunda enabled without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "postgres enabled without host",
			body:    "database:\n  postgres:\n    enabled: true\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "redis enabled without address",
			body:    "database:\n  redis:\n    enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "kafka enabled without brokers",
			body:    "kafka:\n  enabled: true\n",
			wantErr: "kafka.brokers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLLMEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// ==========================
// Helpers
// ==========================

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestServerConfig_WriteDeadline(t *testing.T) {
	tests := []struct {
		name           string
		writeTimeout   int
		requestTimeout time.Duration
		validateOutput func(t *testing.T, got time.Duration)
	}{
		{
			name:           "configured value covers the request",
			writeTimeout:   120000,
			requestTimeout: 105 * time.Second,
			validateOutput: func(t *testing.T, got time.Duration) {
				assert.Equal(t, 120*time.Second, got)
			},
		},
		{
			name:           "slow model raises the deadline",
			writeTimeout:   120000,
			requestTimeout: 3*time.Minute + 15*time.Second,
			validateOutput: func(t *testing.T, got time.Duration) {
				assert.Equal(t, 3*time.Minute+20*time.Second, got)
			},
		},
		{
			name:           "unset write timeout",
			requestTimeout: 30 * time.Second,
			validateOutput: func(t *testing.T, got time.Duration) {
				assert.Equal(t, 35*time.Second, got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ServerConfig{WriteTimeout: tt.writeTimeout}
			tt.validateOutput(t, s.WriteDeadline(tt.requestTimeout))
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{Timeout: 45000},
		Workers: map[string]WorkerConfig{
			"route-ticket": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
		},
	}

	assert.False(t, IsWorkerEnabled(cfg, "route-ticket"))
	assert.True(t, IsWorkerEnabled(cfg, "summarize-ticket"))

	assert.Equal(t, 2, GetWorkerConfig(cfg, "route-ticket").MaxJobsActive)

	fallback := GetWorkerConfig(cfg, "summarize-ticket")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 45000, fallback.Timeout)
}
