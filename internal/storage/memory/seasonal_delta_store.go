package memory

import (
	"context"
	"sort"
	"sync"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// SeasonalDeltaStore is an in-memory implementation of storage.SeasonalDeltaStore.
type SeasonalDeltaStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeasonalDelta // keyed by client_id
}

// NewSeasonalDeltaStore creates a new in-memory seasonal delta store.
func NewSeasonalDeltaStore() *SeasonalDeltaStore {
	return &SeasonalDeltaStore{
		data: make(map[string]*domain.SeasonalDelta),
	}
}

// InsertBulk adds multiple deltas atomically. Fails entire batch on any duplicate.
func (s *SeasonalDeltaStore) InsertBulk(_ context.Context, deltas []*domain.SeasonalDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(deltas))
	for _, d := range deltas {
		if d == nil || d.ClientID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[d.ClientID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[d.ClientID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[d.ClientID] = struct{}{}
	}

	for _, d := range deltas {
		deltaCopy := *d
		s.data[d.ClientID] = &deltaCopy
	}

	return nil
}

// GetAll retrieves all deltas, ordered by client_id ASC.
func (s *SeasonalDeltaStore) GetAll(_ context.Context) ([]*domain.SeasonalDelta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SeasonalDelta, 0, len(s.data))
	for _, d := range s.data {
		deltaCopy := *d
		result = append(result, &deltaCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClientID < result[j].ClientID
	})

	return result, nil
}

var _ storage.SeasonalDeltaStore = (*SeasonalDeltaStore)(nil)
