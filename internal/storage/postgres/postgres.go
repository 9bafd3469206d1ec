// Package postgres stores the client table in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"churn-feature-lab/internal/observability"
)

// Pool is the warehouse connection pool shared by the client store and
// the migration runner.
type Pool struct {
	*pgxpool.Pool
	metrics *observability.Metrics
}

// NewPool connects to dsn and checks the connection with a ping.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", cfg.ConnConfig.Host, cfg.ConnConfig.Database, err)
	}

	return &Pool{Pool: pool}, nil
}

// WithMetrics records the duration and outcome of every store query.
func (p *Pool) WithMetrics(m *observability.Metrics) *Pool {
	p.metrics = m
	return p
}

// observe records one store operation. err points at the caller's named
// result so it is read after the operation returns.
func (p *Pool) observe(operation string, start time.Time, err *error) {
	p.metrics.RecordDBQuery("postgres", operation, time.Since(start), *err)
}

// unique_violation
const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports whether err is a primary key conflict.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
