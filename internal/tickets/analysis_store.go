// internal/tickets/analysis_store.go
package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "ticket-triage/internal/common/errors"
)

const analysisKeyPrefix = "triage:analysis:"

// AnalysisStore caches the latest pipeline result per ticket. Values are stored as raw JSON so
// the store does not depend on the orchestrator's types.
type AnalysisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewAnalysisStore(client redis.Cmdable, ttl time.Duration) *AnalysisStore {
	return &AnalysisStore{client: client, ttl: ttl}
}

func analysisKey(ticketID string) string {
	return analysisKeyPrefix + ticketID
}

func (s *AnalysisStore) Save(ctx context.Context, ticketID string, analysis interface{}) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return apperrors.NewCacheFailedError(err)
	}
	if err := s.client.Set(ctx, analysisKey(ticketID), data, s.ttl).Err(); err != nil {
		return apperrors.NewCacheFailedError(err)
	}
	return nil
}

// Load returns ErrNotFound when no analysis is cached for ticketID.
func (s *AnalysisStore) Load(ctx context.Context, ticketID string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, analysisKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewCacheFailedError(err)
	}
	return json.RawMessage(data), nil
}
