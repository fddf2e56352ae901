// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Backoff bounds retries of broker calls. Delays double from Base up to Max.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var DefaultBackoff = Backoff{Attempts: 3, Base: time.Second, Max: 10 * time.Second}

// Client is the Zeebe connection shared by the triage job workers.
type Client struct {
	zb             zbc.Client
	address        string
	connectTimeout time.Duration
	backoff        Backoff
}

// NewClient dials the broker over plaintext gRPC and requires one successful topology
// round trip before returning.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	connectTimeout := config.GetDuration(cfg.RequestTimeout)
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}

	zb, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zb: zb, address: cfg.BrokerAddress, connectTimeout: connectTimeout, backoff: DefaultBackoff}
	if _, err := c.topology(context.Background()); err != nil {
		zb.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

// GetClient exposes the raw client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.zb
}

func (c *Client) Close() error {
	return c.zb.Close()
}

// HealthCheck asks the broker for its topology, retrying transient failures.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.withRetry(ctx, "topology", func(ctx context.Context) error {
		_, err := c.topology(ctx)
		return err
	})
}

func (c *Client) topology(ctx context.Context) (*pb.TopologyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	return c.zb.NewTopologyCommand().Send(ctx)
}

func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	delay := c.backoff.Base
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !transient(err) || attempt >= c.backoff.Attempts {
			return workflowError(err, op, attempt)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("operation %s cancelled after %d attempts: %w", op, attempt+1, ctx.Err())
		}
		if delay *= 2; delay > c.backoff.Max {
			delay = c.backoff.Max
		}
	}
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

var permanentPhrases = []string{
	"not found",
	"already exists",
	"permission denied",
	"unauthorized",
}

func transient(err error) bool {
	return containsAny(strings.ToLower(err.Error()), transientPhrases)
}

// workflowError wraps a broker failure as WORKFLOW_ENGINE_FAILED. Permanent failures are
// marked non-retryable so job handlers throw instead of failing with retries.
func workflowError(err error, op string, attempt int) error {
	msg := fmt.Sprintf("Zeebe operation '%s' failed", op)
	if attempt > 0 {
		msg += fmt.Sprintf(" after %d attempts", attempt)
	}

	stdErr := errors.NewWorkflowEngineError(op, fmt.Errorf("%s: %w", msg, err))
	if containsAny(strings.ToLower(err.Error()), permanentPhrases) {
		stdErr.Retryable = false
	}
	return stdErr
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
