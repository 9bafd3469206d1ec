package ingestion

import (
	"context"
	"fmt"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/normalization"
	"churn-feature-lab/internal/table"
)

// ClientSource provides decoded client records.
type ClientSource interface {
	// Fetch returns every client. Records may be unordered; Manager enforces ordering.
	Fetch(ctx context.Context) ([]*domain.ClientRecord, error)
}

// PriceSource provides decoded price records.
type PriceSource interface {
	// Fetch returns every price observation. Records may be unordered.
	Fetch(ctx context.Context) ([]*domain.PriceRecord, error)
}

// CSVClientSource reads and decodes a client CSV file.
type CSVClientSource struct {
	Path string
}

// NewCSVClientSource creates a client source over a CSV file.
func NewCSVClientSource(path string) *CSVClientSource {
	return &CSVClientSource{Path: path}
}

// Fetch loads the file and decodes it. Schema violations are returned as
// *normalization.SchemaError.
func (s *CSVClientSource) Fetch(_ context.Context) ([]*domain.ClientRecord, error) {
	t, err := table.ReadCSVFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load client table %s: %w", s.Path, err)
	}
	clients, err := normalization.DecodeClients(t)
	if err != nil {
		return nil, fmt.Errorf("decode client table %s: %w", s.Path, err)
	}
	return clients, nil
}

// CSVPriceSource reads and decodes a price CSV file.
type CSVPriceSource struct {
	Path string
}

// NewCSVPriceSource creates a price source over a CSV file.
func NewCSVPriceSource(path string) *CSVPriceSource {
	return &CSVPriceSource{Path: path}
}

// Fetch loads the file and decodes it.
func (s *CSVPriceSource) Fetch(_ context.Context) ([]*domain.PriceRecord, error) {
	t, err := table.ReadCSVFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load price table %s: %w", s.Path, err)
	}
	prices, err := normalization.DecodePrices(t)
	if err != nil {
		return nil, fmt.Errorf("decode price table %s: %w", s.Path, err)
	}
	return prices, nil
}
