package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"solana-holder-flow/internal/observability"
)

// Pool sizing. The pipeline writes from at most a backfill batch plus the
// live queue at once, and the API reads on top of that.
const (
	defaultMaxConns          = 10
	defaultHealthCheckPeriod = 30 * time.Second
)

// Pool is the shared pgx pool behind the holder and transfer stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool parses dsn, connects and pings. Pool limits given in the DSN
// (pool_max_conns, ...) take precedence over the defaults.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnConfig.RuntimeParams["application_name"] == "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = "holderflow"
	}
	if !hasParam(dsn, "pool_max_conns") {
		cfg.MaxConns = defaultMaxConns
	}
	if !hasParam(dsn, "pool_health_check_period") {
		cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

func hasParam(dsn, name string) bool {
	return strings.Contains(dsn, name+"=")
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
