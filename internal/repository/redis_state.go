package repository

import (
	"context"
	"errors"
	"fmt"

	"LaborPulse/internal/domain/models"
	"LaborPulse/pkg/cache"
)

const stateKey = "nowcast:state"

// RedisStateStore persists counter state through the cache layer so a
// restarted process resumes from its last tick instead of the epoch seed.
type RedisStateStore struct {
	cache cache.Service
}

func NewRedisStateStore(c cache.Service) *RedisStateStore {
	return &RedisStateStore{cache: c}
}

func (s *RedisStateStore) Save(ctx context.Context, state models.NowcastState) error {
	// No expiration: the state outlives any deploy gap.
	if err := s.cache.Set(ctx, stateKey, state, 0); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Load(ctx context.Context) (*models.NowcastState, error) {
	var state models.NowcastState
	err := s.cache.Get(ctx, stateKey, &state)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return &state, nil
}
