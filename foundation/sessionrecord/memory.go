package sessionrecord

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory returns an in-process Store. Used in tests and when running
// without a shared store (single-process mode).
func NewMemory() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.records[id]
	r.ID = id
	return r, nil
}

func (s *memoryStore) SetInsight(ctx context.Context, id string, insightJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[id]
	r.CurrentInsight = insightJSON
	s.records[id] = r
	return nil
}

func (s *memoryStore) SetIdentity(ctx context.Context, id string, status string, customerID string, confidence string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[id]
	r.Status = status
	r.CurrentCustomerID = customerID
	r.ConfidenceLevel = confidence
	s.records[id] = r
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
