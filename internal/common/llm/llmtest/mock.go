// Package llmtest provides test doubles for the llm boundary.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockGenerator is a testify mock of llm.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	args := m.Called(ctx, prompt, system)
	return args.String(0), args.Error(1)
}

// SystemContains matches a Generate call by a fragment of its system instruction.
func SystemContains(fragment string) interface{} {
	return mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, fragment)
	})
}

// Reply is a Generator that answers by system-instruction fragment. Unmatched calls
// return Fallback. It records every prompt it receives.
type Reply struct {
	Responses map[string]Response
	Fallback  Response

	mu      sync.Mutex
	prompts []string
}

type Response struct {
	Text string
	Err  error
}

func (r *Reply) Generate(ctx context.Context, prompt, system string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for fragment, resp := range r.Responses {
		if strings.Contains(system, fragment) {
			return resp.Text, resp.Err
		}
	}
	return r.Fallback.Text, r.Fallback.Err
}

func (r *Reply) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}
