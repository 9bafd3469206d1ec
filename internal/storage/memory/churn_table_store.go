package memory

import (
	"context"
	"sort"
	"sync"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// ChurnTableStore is an in-memory implementation of storage.ChurnTableStore.
type ChurnTableStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ChurnAggregateTable // keyed by attribute
}

// NewChurnTableStore creates a new in-memory churn table store.
func NewChurnTableStore() *ChurnTableStore {
	return &ChurnTableStore{
		data: make(map[string]*domain.ChurnAggregateTable),
	}
}

// Upsert stores a table, replacing any table for the same attribute.
func (s *ChurnTableStore) Upsert(_ context.Context, t *domain.ChurnAggregateTable) error {
	if t == nil || t.Attribute == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[t.Attribute] = cloneChurnTable(t)
	return nil
}

// GetByAttribute retrieves the table of an attribute. Returns ErrNotFound if not exists.
func (s *ChurnTableStore) GetByAttribute(_ context.Context, attribute string) (*domain.ChurnAggregateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[attribute]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneChurnTable(t), nil
}

// GetAll retrieves all tables, ordered by attribute ASC.
func (s *ChurnTableStore) GetAll(_ context.Context) ([]*domain.ChurnAggregateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ChurnAggregateTable, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, cloneChurnTable(t))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Attribute < result[j].Attribute
	})

	return result, nil
}

var _ storage.ChurnTableStore = (*ChurnTableStore)(nil)
