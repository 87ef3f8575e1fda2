package results

import (
	"context"
	"sync"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ output.ResultSink = (*MemoryStore)(nil)

// MemoryStore keeps the latest result payload per task ID. Deliveries upsert
// by key, so redelivered results overwrite instead of duplicating.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]entity.TaskResultPayload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]entity.TaskResultPayload)}
}

func (s *MemoryStore) Deliver(_ context.Context, payload entity.TaskResultPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[payload.TaskID] = payload
	return nil
}

func (s *MemoryStore) Get(taskID string) (entity.TaskResultPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[taskID]
	return p, ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
