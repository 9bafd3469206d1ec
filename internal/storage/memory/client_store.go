package memory

import (
	"context"
	"sort"
	"sync"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// ClientStore is an in-memory implementation of storage.ClientStore.
type ClientStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClientRecord // keyed by id
}

// NewClientStore creates a new in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		data: make(map[string]*domain.ClientRecord),
	}
}

// InsertBulk adds multiple clients atomically. Fails entire batch on any duplicate.
func (s *ClientStore) InsertBulk(_ context.Context, clients []*domain.ClientRecord) error {
	if len(clients) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(clients))

	// First pass: check for duplicates (existing + intra-batch)
	for _, c := range clients {
		if c == nil || c.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[c.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.ID] = struct{}{}
	}

	// Second pass: insert all
	for _, c := range clients {
		s.data[c.ID] = cloneClient(c)
	}

	return nil
}

// GetAll retrieves all clients, ordered by id ASC.
func (s *ClientStore) GetAll(_ context.Context) ([]*domain.ClientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ClientRecord, 0, len(s.data))
	for _, c := range s.data {
		result = append(result, cloneClient(c))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.ClientStore = (*ClientStore)(nil)
