// Package llm is the boundary to the text-generation backend used by the triage agents.
package llm

import (
	"context"
	"errors"
	"time"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/metrics"
)

// Generator turns a prompt and a system instruction into raw model text.
// Implementations make exactly one attempt per call.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Prober reports which models the backend currently serves.
type Prober interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Client is a Generator that can also be probed for status.
type Client interface {
	Generator
	Prober
	Provider() string
	Model() string
}

var (
	ErrLLMTimeout     = errors.New("LLM_TIMEOUT")
	ErrLLMUnavailable = errors.New("LLM_UNAVAILABLE")
	ErrLLMBadStatus   = errors.New("LLM_BAD_STATUS")
)

// Classify maps a Generate error onto the application error taxonomy.
func Classify(err error, timeout time.Duration) *apperrors.StandardError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError(timeout)
	case errors.Is(err, ErrLLMBadStatus):
		var se *BadStatusError
		if errors.As(err, &se) {
			return apperrors.NewLLMBadStatusError(se.StatusCode)
		}
		return apperrors.NewLLMBadStatusError(0)
	default:
		return apperrors.NewLLMUnavailableError(err)
	}
}

// BadStatusError carries the HTTP status of a rejected generate call.
type BadStatusError struct {
	StatusCode int
}

func (e *BadStatusError) Error() string {
	return ErrLLMBadStatus.Error()
}

func (e *BadStatusError) Unwrap() error {
	return ErrLLMBadStatus
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrLLMTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrLLMBadStatus):
		return metrics.OutcomeBadStatus
	default:
		return metrics.OutcomeError
	}
}

func observe(provider string, started time.Time, err error) {
	metrics.LLMRequests.WithLabelValues(provider, outcomeOf(err)).Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}
