package memory

import (
	"context"
	"sort"
	"sync"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
// Records are kept in arrival order; reads sort a copy.
type PriceStore struct {
	mu   sync.RWMutex
	data []*domain.PriceRecord
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{}
}

// InsertBulk appends multiple records. Fails entire batch on invalid input.
func (s *PriceStore) InsertBulk(_ context.Context, prices []*domain.PriceRecord) error {
	if len(prices) == 0 {
		return nil
	}

	for _, p := range prices {
		if p == nil || p.ClientID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range prices {
		priceCopy := *p
		s.data = append(s.data, &priceCopy)
	}

	return nil
}

// GetAll retrieves all records, ordered by (client_id, price_date) ASC.
func (s *PriceStore) GetAll(_ context.Context) ([]*domain.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PriceRecord, 0, len(s.data))
	for _, p := range s.data {
		priceCopy := *p
		result = append(result, &priceCopy)
	}

	sortPrices(result)
	return result, nil
}

// sortPrices orders by (client_id, price_date); equal keys keep arrival order.
func sortPrices(prices []*domain.PriceRecord) {
	sort.SliceStable(prices, func(i, j int) bool {
		if prices[i].ClientID != prices[j].ClientID {
			return prices[i].ClientID < prices[j].ClientID
		}
		return prices[i].PriceDate.Before(prices[j].PriceDate)
	})
}

var _ storage.PriceStore = (*PriceStore)(nil)
