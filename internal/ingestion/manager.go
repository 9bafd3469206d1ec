package ingestion

import (
	"context"
	"log/slog"

	"churn-feature-lab/internal/storage"
)

// Manager moves records from sources into stores.
// It enforces deterministic ordering and relies on the storage layer for
// duplicate rejection.
type Manager struct {
	clientSource ClientSource
	priceSource  PriceSource

	clientStore storage.ClientStore
	priceStore  storage.PriceStore

	logger *slog.Logger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	ClientSource ClientSource
	PriceSource  PriceSource

	ClientStore storage.ClientStore
	PriceStore  storage.PriceStore

	Logger *slog.Logger
}

// Counts reports how many records each table received.
type Counts struct {
	Clients int
	Prices  int
}

// NewManager creates a new ingestion manager with the provided sources and stores.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		clientSource: opts.ClientSource,
		priceSource:  opts.PriceSource,
		clientStore:  opts.ClientStore,
		priceStore:   opts.PriceStore,
		logger:       logger,
	}
}

// IngestClients fetches clients and stores them ordered by id.
// Duplicate ids are rejected by the store (ErrDuplicateKey).
func (m *Manager) IngestClients(ctx context.Context) (int, error) {
	if m.clientSource == nil || m.clientStore == nil {
		return 0, nil
	}

	clients, err := m.clientSource.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(clients) == 0 {
		return 0, nil
	}

	SortClients(clients)

	if err := m.clientStore.InsertBulk(ctx, clients); err != nil {
		return 0, err
	}

	m.logger.Info("ingested clients", "count", len(clients))
	return len(clients), nil
}

// IngestPrices fetches price observations and stores them ordered by
// (client_id, price_date).
func (m *Manager) IngestPrices(ctx context.Context) (int, error) {
	if m.priceSource == nil || m.priceStore == nil {
		return 0, nil
	}

	prices, err := m.priceSource.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, nil
	}

	SortPrices(prices)

	if err := m.priceStore.InsertBulk(ctx, prices); err != nil {
		return 0, err
	}

	m.logger.Info("ingested prices", "count", len(prices))
	return len(prices), nil
}

// IngestAll ingests clients, then prices.
func (m *Manager) IngestAll(ctx context.Context) (Counts, error) {
	var counts Counts
	var err error

	if counts.Clients, err = m.IngestClients(ctx); err != nil {
		return counts, err
	}
	if counts.Prices, err = m.IngestPrices(ctx); err != nil {
		return counts, err
	}
	return counts, nil
}
