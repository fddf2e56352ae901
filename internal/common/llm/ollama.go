package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "ticket-triage/internal/common/http"
	"ticket-triage/internal/common/logger"
)

const ProviderOllama = "ollama"

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// OllamaClient talks to an Ollama server over its REST API.
type OllamaClient struct {
	baseURL       string
	model         string
	timeout       time.Duration
	statusTimeout time.Duration
	http          *commonhttp.Client
	logger        logger.Logger
}

func NewOllamaClient(baseURL, model string, timeout, statusTimeout time.Duration, log logger.Logger) *OllamaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if statusTimeout <= 0 {
		statusTimeout = 5 * time.Second
	}
	return &OllamaClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		model:         model,
		timeout:       timeout,
		statusTimeout: statusTimeout,
		// bounded per call through the context
		http: commonhttp.NewClient(0),
		logger: log.With(map[string]interface{}{
			"provider": ProviderOllama,
			"model":    model,
		}),
	}
}

func (c *OllamaClient) Provider() string { return ProviderOllama }
func (c *OllamaClient) Model() string    { return c.model }

// Generate posts a non-streaming request to /api/generate and returns the response text.
func (c *OllamaClient) Generate(ctx context.Context, prompt, system string) (text string, err error) {
	started := time.Now()
	defer func() { observe(ProviderOllama, started, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out generateResponse
	err = c.http.PostJSON(ctx, c.baseURL+"/api/generate", generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: false,
	}, &out)
	if err != nil {
		err = c.mapError(ctx, err)
		c.logger.Warn("generate failed", map[string]interface{}{
			"error":      err.Error(),
			"durationMs": time.Since(started).Milliseconds(),
		})
		return "", err
	}

	c.logger.Debug("generate completed", map[string]interface{}{
		"durationMs":     time.Since(started).Milliseconds(),
		"responseLength": len(out.Response),
	})
	return out.Response, nil
}

// ListModels returns the model names reported by /api/tags.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	var out tagsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/tags", &out); err != nil {
		return nil, c.mapError(ctx, err)
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *OllamaClient) mapError(ctx context.Context, err error) error {
	var statusErr *commonhttp.StatusError
	switch {
	case errors.As(err, &statusErr):
		return &BadStatusError{StatusCode: statusErr.StatusCode}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrLLMTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
}
