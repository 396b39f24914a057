package repository

import (
	"context"
	"sync"

	"LaborPulse/internal/domain/models"
)

// MemoryStateStore keeps counter state in process memory. Restarts lose the
// persisted value and fall back to the epoch seed.
type MemoryStateStore struct {
	mu    sync.RWMutex
	state *models.NowcastState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Save(_ context.Context, state models.NowcastState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	return nil
}

func (s *MemoryStateStore) Load(_ context.Context) (*models.NowcastState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	cp := *s.state
	return &cp, nil
}
