package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ticket-triage/internal/common/logger"
)

const ProviderAnthropic = "anthropic"

// AnthropicClient generates through the Anthropic Messages API.
type AnthropicClient struct {
	client        anthropic.Client
	model         string
	maxTokens     int64
	timeout       time.Duration
	statusTimeout time.Duration
	logger        logger.Logger
}

// NewAnthropicClient builds a client with SDK retries disabled. Extra options (base URL,
// HTTP client) are applied last.
func NewAnthropicClient(apiKey, model string, maxTokens int, timeout, statusTimeout time.Duration, log logger.Logger, opts ...option.RequestOption) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if statusTimeout <= 0 {
		statusTimeout = 5 * time.Second
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &AnthropicClient{
		client:        anthropic.NewClient(all...),
		model:         model,
		maxTokens:     int64(maxTokens),
		timeout:       timeout,
		statusTimeout: statusTimeout,
		logger: log.With(map[string]interface{}{
			"provider": ProviderAnthropic,
			"model":    model,
		}),
	}
}

func (c *AnthropicClient) Provider() string { return ProviderAnthropic }
func (c *AnthropicClient) Model() string    { return c.model }

func (c *AnthropicClient) Generate(ctx context.Context, prompt, system string) (text string, err error) {
	started := time.Now()
	defer func() { observe(ProviderAnthropic, started, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		err = c.mapError(ctx, err)
		c.logger.Warn("generate failed", map[string]interface{}{
			"error":      err.Error(),
			"durationMs": time.Since(started).Milliseconds(),
		})
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			c.logger.Debug("generate completed", map[string]interface{}{
				"durationMs":   time.Since(started).Milliseconds(),
				"inputTokens":  message.Usage.InputTokens,
				"outputTokens": message.Usage.OutputTokens,
			})
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", ErrLLMUnavailable)
}

// ListModels returns the IDs of the first page of models visible to the API key.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *AnthropicClient) mapError(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		return &BadStatusError{StatusCode: apiErr.StatusCode}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrLLMTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
}
