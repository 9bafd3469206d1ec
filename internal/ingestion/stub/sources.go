// Package stub provides fixed in-memory sources for tests and demos.
package stub

import (
	"context"

	"churn-feature-lab/internal/domain"
)

// ClientSource returns fixed in-memory clients.
// Records can be intentionally unordered to test sorting.
// Implements ingestion.ClientSource.
type ClientSource struct {
	clients []*domain.ClientRecord
	err     error
}

// NewClientSource creates a stub client source.
func NewClientSource(clients []*domain.ClientRecord) *ClientSource {
	return &ClientSource{clients: clients}
}

// NewFailingClientSource creates a stub client source whose Fetch fails.
func NewFailingClientSource(err error) *ClientSource {
	return &ClientSource{err: err}
}

// Fetch returns copies of the clients.
func (s *ClientSource) Fetch(_ context.Context) ([]*domain.ClientRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*domain.ClientRecord, len(s.clients))
	for i, c := range s.clients {
		cp := *c
		result[i] = &cp
	}
	return result, nil
}

// PriceSource returns fixed in-memory price records.
// Implements ingestion.PriceSource.
type PriceSource struct {
	prices []*domain.PriceRecord
}

// NewPriceSource creates a stub price source.
func NewPriceSource(prices []*domain.PriceRecord) *PriceSource {
	return &PriceSource{prices: prices}
}

// Fetch returns copies of the price records.
func (s *PriceSource) Fetch(_ context.Context) ([]*domain.PriceRecord, error) {
	result := make([]*domain.PriceRecord, len(s.prices))
	for i, p := range s.prices {
		cp := *p
		result[i] = &cp
	}
	return result, nil
}
