package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential record in process memory. Used when
// Redis is disabled and in tests.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the record.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

// Load retrieves the record, or ErrNotConfigured.
func (s *MemoryStore) Load(_ context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil {
		return Record{}, ErrNotConfigured
	}
	return *s.rec, nil
}
