package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// FlowTTL bounds how long abandoned onboarding progress is kept.
const FlowTTL = 7 * 24 * time.Hour

// FlowStore keeps onboarding progress as JSON.
// Key format: onboarding:flow:<uid>
type FlowStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFlowStore(client *redis.Client) *FlowStore {
	return &FlowStore{client: client, ttl: FlowTTL}
}

func (s *FlowStore) Get(ctx context.Context, uid string) (*domain.Flow, error) {
	raw, err := s.client.Get(ctx, flowKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}

	var f domain.Flow
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode flow: %w", err)
	}
	return &f, nil
}

// Save writes the flow and refreshes its expiry.
func (s *FlowStore) Save(ctx context.Context, flow *domain.Flow) error {
	raw, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encode flow: %w", err)
	}
	return s.client.Set(ctx, flowKey(flow.AccountID), raw, s.ttl).Err()
}

func flowKey(uid string) string {
	return "onboarding:flow:" + uid
}
