package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
)

const defaultCounter = "orders"

// InvoiceSequence keeps the counter in a row. The upsert takes a row lock,
// so concurrent callers are serialized by the database, and the counter is
// lifted past the highest persisted invoice in case orders were written
// without it.
type InvoiceSequence struct {
	pool  *pgxpool.Pool
	name  string
	start int64
}

func NewInvoiceSequence(pool *pgxpool.Pool, start int64) *InvoiceSequence {
	if start <= 0 {
		start = invoice.Start
	}
	return &InvoiceSequence{pool: pool, name: defaultCounter, start: start}
}

func (s *InvoiceSequence) Next(ctx context.Context) (int64, error) {
	var next int64
	err := s.pool.QueryRow(ctx, `INSERT INTO invoice_counters (name, value)
		VALUES ($1, GREATEST($2, (SELECT COALESCE(MAX(invoice), 0) FROM orders) + 1))
		ON CONFLICT (name) DO UPDATE
		SET value = GREATEST(invoice_counters.value, (SELECT COALESCE(MAX(invoice), 0) FROM orders)) + 1
		RETURNING value`, s.name, s.start).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("postgres: next invoice: %w", err)
	}
	return next, nil
}
