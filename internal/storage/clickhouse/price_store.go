package clickhouse

import (
	"context"
	"fmt"
	"time"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
// The prices table is a plain MergeTree: repeated (client_id, price_date)
// observations are kept and averaged downstream.
type PriceStore struct {
	conn    *Conn
	metrics *observability.Metrics
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// WithMetrics records query durations and errors.
func (s *PriceStore) WithMetrics(m *observability.Metrics) *PriceStore {
	s.metrics = m
	return s
}

func (s *PriceStore) observe(operation string, start time.Time, err *error) {
	s.metrics.RecordDBQuery("clickhouse", operation, time.Since(start), *err)
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

const priceColumns = `
	client_id, price_date,
	price_off_peak_var, price_peak_var, price_mid_peak_var,
	price_off_peak_fix, price_peak_fix, price_mid_peak_fix`

// InsertBulk appends multiple records in one batch.
func (s *PriceStore) InsertBulk(ctx context.Context, prices []*domain.PriceRecord) (err error) {
	defer s.observe("insert_bulk", time.Now(), &err)

	if len(prices) == 0 {
		return nil
	}
	for _, p := range prices {
		if p == nil || p.ClientID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO prices (`+priceColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range prices {
		err = batch.Append(
			p.ClientID, p.PriceDate,
			p.PriceOffPeakVar, p.PricePeakVar, p.PriceMidPeakVar,
			p.PriceOffPeakFix, p.PricePeakFix, p.PriceMidPeakFix,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all records, ordered by (client_id, price_date) ASC.
func (s *PriceStore) GetAll(ctx context.Context) (prices []*domain.PriceRecord, err error) {
	defer s.observe("get_all", time.Now(), &err)

	query := `SELECT ` + priceColumns + `
		FROM prices
		ORDER BY client_id ASC, price_date ASC`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all prices: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

// scanPrices scans multiple rows.
func scanPrices(rows chRows) ([]*domain.PriceRecord, error) {
	var prices []*domain.PriceRecord

	for rows.Next() {
		var p domain.PriceRecord
		err := rows.Scan(
			&p.ClientID, &p.PriceDate,
			&p.PriceOffPeakVar, &p.PricePeakVar, &p.PriceMidPeakVar,
			&p.PriceOffPeakFix, &p.PricePeakFix, &p.PriceMidPeakFix,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		p.PriceDate = p.PriceDate.UTC()
		prices = append(prices, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}
