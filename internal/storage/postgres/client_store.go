package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// ClientStore implements storage.ClientStore using PostgreSQL.
// Query metrics are recorded through the pool.
type ClientStore struct {
	pool *Pool
}

// NewClientStore creates a new ClientStore.
func NewClientStore(pool *Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClientStore = (*ClientStore)(nil)

const clientColumns = `
	id, channel_sales, origin_up, has_gas,
	cons_12m, cons_gas_12m, cons_last_month, forecast_cons_12m,
	margin_gross_pow_ele, margin_net_pow_ele, net_margin, pow_max,
	nb_prod_act, num_years_antig,
	date_activ, date_end, date_modif_prod, date_renewal,
	var_6m_price_off_peak, var_6m_price_peak, var_6m_price_mid_peak,
	churn, source_columns, extra`

// InsertBulk adds multiple clients atomically. Fails entire batch on any duplicate.
func (s *ClientStore) InsertBulk(ctx context.Context, clients []*domain.ClientRecord) (err error) {
	defer s.pool.observe("insert_bulk", time.Now(), &err)

	if len(clients) == 0 {
		return nil
	}
	for _, c := range clients {
		if c == nil || c.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO clients (` + clientColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
	)`

	for _, c := range clients {
		_, err := tx.Exec(ctx, query,
			c.ID,
			c.ChannelSales,
			c.OriginUp,
			c.HasGas,
			c.Cons12m,
			c.ConsGas12m,
			c.ConsLastMonth,
			c.ForecastCons12m,
			c.MarginGrossPowEle,
			c.MarginNetPowEle,
			c.NetMargin,
			c.PowMax,
			c.NbProdAct,
			c.NumYearsAntig,
			c.DateActiv,
			c.DateEnd,
			c.DateModifProd,
			c.DateRenewal,
			c.VarSixMonthPriceOffPeak,
			c.VarSixMonthPricePeak,
			c.VarSixMonthPriceMidPeak,
			c.Churn,
			c.Columns,
			c.Extra,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert client in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all clients, ordered by id ASC.
func (s *ClientStore) GetAll(ctx context.Context) (clients []*domain.ClientRecord, err error) {
	defer s.pool.observe("get_all", time.Now(), &err)

	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}

	return clients, nil
}

// scanClient scans a single row into a ClientRecord.
func scanClient(row pgx.Row) (*domain.ClientRecord, error) {
	var c domain.ClientRecord
	err := row.Scan(
		&c.ID,
		&c.ChannelSales,
		&c.OriginUp,
		&c.HasGas,
		&c.Cons12m,
		&c.ConsGas12m,
		&c.ConsLastMonth,
		&c.ForecastCons12m,
		&c.MarginGrossPowEle,
		&c.MarginNetPowEle,
		&c.NetMargin,
		&c.PowMax,
		&c.NbProdAct,
		&c.NumYearsAntig,
		&c.DateActiv,
		&c.DateEnd,
		&c.DateModifProd,
		&c.DateRenewal,
		&c.VarSixMonthPriceOffPeak,
		&c.VarSixMonthPricePeak,
		&c.VarSixMonthPriceMidPeak,
		&c.Churn,
		&c.Columns,
		&c.Extra,
	)
	if err != nil {
		return nil, err
	}
	c.DateActiv = c.DateActiv.UTC()
	c.DateEnd = c.DateEnd.UTC()
	c.DateModifProd = c.DateModifProd.UTC()
	c.DateRenewal = c.DateRenewal.UTC()
	return &c, nil
}
