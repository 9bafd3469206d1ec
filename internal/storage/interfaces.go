package storage

import (
	"context"

	"churn-feature-lab/internal/domain"
)

// ClientStore provides access to client table storage.
type ClientStore interface {
	// InsertBulk adds multiple clients atomically.
	// Fails entire batch with ErrDuplicateKey if any id exists or repeats in the batch.
	InsertBulk(ctx context.Context, clients []*domain.ClientRecord) error

	// GetAll retrieves all clients, ordered by id ASC.
	GetAll(ctx context.Context) ([]*domain.ClientRecord, error)
}

// PriceStore provides access to price observation storage.
// Several records may share (client_id, price_date).
type PriceStore interface {
	// InsertBulk appends multiple price records.
	InsertBulk(ctx context.Context, prices []*domain.PriceRecord) error

	// GetAll retrieves all records, ordered by (client_id, price_date) ASC.
	GetAll(ctx context.Context) ([]*domain.PriceRecord, error)
}

// SeasonalDeltaStore provides access to per-client seasonal deltas.
type SeasonalDeltaStore interface {
	// InsertBulk adds multiple deltas atomically. Fails entire batch on any duplicate client_id.
	InsertBulk(ctx context.Context, deltas []*domain.SeasonalDelta) error

	// GetAll retrieves all deltas, ordered by client_id ASC.
	GetAll(ctx context.Context) ([]*domain.SeasonalDelta, error)
}

// EnhancedClientStore provides access to the enhanced client table.
type EnhancedClientStore interface {
	// InsertBulk appends records atomically. Fails entire batch on any duplicate id.
	InsertBulk(ctx context.Context, records []*domain.EnhancedClientRecord) error

	// GetAll retrieves all records in insertion order.
	GetAll(ctx context.Context) ([]*domain.EnhancedClientRecord, error)
}

// ChurnTableStore provides access to computed churn aggregate tables.
type ChurnTableStore interface {
	// Upsert stores a table, replacing any table for the same attribute.
	Upsert(ctx context.Context, t *domain.ChurnAggregateTable) error

	// GetByAttribute retrieves the table of an attribute. Returns ErrNotFound if not exists.
	GetByAttribute(ctx context.Context, attribute string) (*domain.ChurnAggregateTable, error)

	// GetAll retrieves all tables, ordered by attribute ASC.
	GetAll(ctx context.Context) ([]*domain.ChurnAggregateTable, error)
}
