package memory

import (
	"context"
	"sync"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// EnhancedClientStore is an in-memory implementation of storage.EnhancedClientStore.
// Insertion order is preserved.
type EnhancedClientStore struct {
	mu    sync.RWMutex
	data  []*domain.EnhancedClientRecord
	index map[string]struct{} // ids present
}

// NewEnhancedClientStore creates a new in-memory enhanced client store.
func NewEnhancedClientStore() *EnhancedClientStore {
	return &EnhancedClientStore{
		index: make(map[string]struct{}),
	}
}

// InsertBulk appends records atomically. Fails entire batch on any duplicate.
func (s *EnhancedClientStore) InsertBulk(_ context.Context, records []*domain.EnhancedClientRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.index[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range records {
		s.data = append(s.data, cloneEnhanced(r))
		s.index[r.ID] = struct{}{}
	}

	return nil
}

// GetAll retrieves all records in insertion order.
func (s *EnhancedClientStore) GetAll(_ context.Context) ([]*domain.EnhancedClientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EnhancedClientRecord, len(s.data))
	for i, r := range s.data {
		result[i] = cloneEnhanced(r)
	}
	return result, nil
}

var _ storage.EnhancedClientStore = (*EnhancedClientStore)(nil)
