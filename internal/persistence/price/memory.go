package pricepersist

import (
	"context"
	"sync"

	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

// MemoryStore is a process-local pricing.Store used when no database is
// configured and by the CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[market.Key]market.Quote
}

var _ pricing.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[market.Key]market.Quote)}
}

// Get implements pricing.Store.
func (s *MemoryStore) Get(_ context.Context, key market.Key) (*market.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quote, ok := s.entries[key]
	if !ok {
		return nil, pricing.ErrNotFound
	}
	return &quote, nil
}

// Upsert implements pricing.Store.
func (s *MemoryStore) Upsert(_ context.Context, quote market.Quote) (*market.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[quote.Key()] = quote
	return &quote, nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
