package inventory

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, productID string) (*Product, error)
	Save(ctx context.Context, p *Product) error
	// Decrement atomically subtracts line.Quantity only if the targeted stock
	// covers it, bumping sales in the same write. For combinations the variant
	// stock and product total move together.
	Decrement(ctx context.Context, line Line) error
	// DecrementAll applies every line or none of them.
	DecrementAll(ctx context.Context, lines []Line) error
}
