package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same
// statements run standalone or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open builds a pool and verifies connectivity.
func Open(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		is_combination BOOLEAN NOT NULL DEFAULT false,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		total_stock INTEGER NOT NULL DEFAULT 0 CHECK (total_stock >= 0),
		sales INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		length TEXT NOT NULL,
		curl TEXT NOT NULL,
		stock INTEGER NOT NULL CHECK (stock >= 0),
		sales INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, length, curl)
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		invoice BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		user_info JSONB NOT NULL,
		cart JSONB NOT NULL,
		sub_total BIGINT NOT NULL,
		discount BIGINT NOT NULL,
		shipping_cost BIGINT NOT NULL,
		total BIGINT NOT NULL,
		currency TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_invoice ON orders(invoice)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS invoice_counters (
		name TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db querier) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
