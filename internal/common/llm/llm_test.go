package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
)

// ==========================
// Ollama
// ==========================

func TestOllamaClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "Ticket #T1", req.Prompt)
		assert.Equal(t, "You are a router", req.System)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": `{"recommendedTeam":"billing"}`, "done": true})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL+"/", "llama3", time.Second, time.Second, logger.NewTestLogger(t))
	text, err := client.Generate(context.Background(), "Ticket #T1", "You are a router")

	require.NoError(t, err)
	assert.Equal(t, `{"recommendedTeam":"billing"}`, text)
	assert.Equal(t, ProviderOllama, client.Provider())
	assert.Equal(t, "llama3", client.Model())
}

func TestOllamaClient_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		wantErr error
		code    apperrors.ErrorCode
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			timeout: time.Second,
			wantErr: ErrLLMBadStatus,
			code:    apperrors.ErrCodeLLMBadStatus,
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-r.Context().Done():
				}
			},
			timeout: 50 * time.Millisecond,
			wantErr: ErrLLMTimeout,
			code:    apperrors.ErrCodeLLMTimeout,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			timeout: time.Second,
			wantErr: ErrLLMUnavailable,
			code:    apperrors.ErrCodeLLMUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewOllamaClient(server.URL, "llama3", tt.timeout, time.Second, logger.NewTestLogger(t))
			text, err := client.Generate(context.Background(), "p", "s")

			assert.Empty(t, text)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.code, Classify(err, tt.timeout).Code)
		})
	}
}

func TestOllamaClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewOllamaClient(url, "llama3", time.Second, time.Second, logger.NewNoOpLogger())
	_, err := client.Generate(context.Background(), "p", "")
	assert.True(t, errors.Is(err, ErrLLMUnavailable))
}

func TestOllamaClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "llama3", time.Second, time.Second, logger.NewNoOpLogger())
	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "mistral:7b"}, models)
}

// ==========================
// Anthropic
// ==========================

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "{\"estimatedMinutes\": 45}"}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-test", 512, time.Second, time.Second,
		logger.NewTestLogger(t), option.WithBaseURL(server.URL))

	text, err := client.Generate(context.Background(), "Ticket #T1", "You estimate time")
	require.NoError(t, err)
	assert.Equal(t, `{"estimatedMinutes": 45}`, text)
}

func TestAnthropicClient_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-test", 512, time.Second, time.Second,
		logger.NewNoOpLogger(), option.WithBaseURL(server.URL))

	_, err := client.Generate(context.Background(), "p", "")
	var badStatus *BadStatusError
	require.True(t, errors.As(err, &badStatus), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, badStatus.StatusCode)
}

// ==========================
// Status monitor
// ==========================

func TestStatusMonitor_Check(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "llama3", time.Second, time.Second, logger.NewNoOpLogger())
	monitor, err := NewStatusMonitor(client, "*/1 * * * *", logger.NewNoOpLogger())
	require.NoError(t, err)

	assert.False(t, monitor.Snapshot().Connected)

	st := monitor.Check(context.Background())
	assert.True(t, st.Connected)
	assert.Equal(t, []string{"llama3"}, st.Models)
	assert.Empty(t, st.Error)
	assert.Equal(t, st, monitor.Snapshot())

	healthy.Store(false)
	st = monitor.Check(context.Background())
	assert.False(t, st.Connected)
	assert.NotEmpty(t, st.Error)
	assert.Equal(t, http.StatusServiceUnavailable, st.StatusCode)
	assert.Equal(t, []string{}, st.Models)
}

func TestStatusMonitor_InvalidSchedule(t *testing.T) {
	client := NewOllamaClient("http://localhost:0", "llama3", time.Second, time.Second, logger.NewNoOpLogger())
	_, err := NewStatusMonitor(client, "every minute", logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestStatusMonitor_RunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "llama3", time.Second, time.Second, logger.NewNoOpLogger())
	monitor, err := NewStatusMonitor(client, "0 0 1 1 *", logger.NewNoOpLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return monitor.Snapshot().Connected }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
