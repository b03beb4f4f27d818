// Package pgdb wires up connections to the target Postgres database: a
// single unpooled connection for the ingestion engine itself, and a pool
// for the read-only status/history queries the CLI serves concurrently.
package pgdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgdatahub/pgdatahub/domain/model"
	"github.com/pgdatahub/pgdatahub/internal/config"
)

// Connect opens a single, unpooled connection to the target database.
// The engine intentionally avoids pgxpool for this connection: a run
// owns one connection for its lifetime, and pooling would only encourage
// the long-lived-lock problem the design note in the resource model calls
// out. Sectional-commit mode uses that same connection for every folder,
// bounding each folder with BEGIN/COMMIT; it does not open a connection
// per folder.
func Connect(ctx context.Context, url string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConnection, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: ping: %w", model.ErrConnection, err)
	}
	return conn, nil
}

// ConnectPool opens a pooled connection set for read-heavy,
// many-short-queries workloads such as the status command.
func ConnectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %w", model.ErrConnection, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", model.ErrConnection, err)
	}

	return pool, nil
}
