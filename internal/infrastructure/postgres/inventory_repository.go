package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
)

// InventoryRepository expresses every decrement as a single conditional
// UPDATE. Rows the guard rejects are re-read only to explain the refusal.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const (
	decrementSimple = `UPDATE products
		SET stock = stock - $2, total_stock = total_stock - $2, sales = sales + $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_combination AND stock >= $2`

	decrementVariant = `WITH v AS (
			UPDATE product_variants
			SET stock = stock - $4, sales = sales + $4
			WHERE product_id = $1 AND length = $2 AND curl = $3 AND stock >= $4
			RETURNING product_id
		)
		UPDATE products p
		SET total_stock = p.total_stock - $4, sales = p.sales + $4, updated_at = NOW()
		FROM v WHERE p.id = v.product_id`
)

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return getProduct(ctx, r.pool, productID)
}

// Save replaces the product and its variants.
func (r *InventoryRepository) Save(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			stock, total int
			variants     []domain.Variant
		)
		switch s := p.Stock.(type) {
		case domain.SimpleStock:
			stock, total = s.Quantity, s.Quantity
		case domain.CombinationStock:
			total, variants = s.Total, s.Variants
		default:
			return fmt.Errorf("inventory repository: product %s has no stock model", p.ID)
		}

		_, err := tx.Exec(ctx, `INSERT INTO products (id, title, is_combination, stock, total_stock, sales, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, is_combination = EXCLUDED.is_combination,
				stock = EXCLUDED.stock, total_stock = EXCLUDED.total_stock, sales = EXCLUDED.sales, updated_at = NOW()`,
			p.ID, p.Title, p.IsCombination(), stock, total, p.Sales)
		if err != nil {
			return fmt.Errorf("postgres: save product: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("postgres: clear variants: %w", err)
		}
		for _, v := range variants {
			if _, err := tx.Exec(ctx, `INSERT INTO product_variants (product_id, length, curl, stock, sales)
				VALUES ($1, $2, $3, $4, $5)`, p.ID, v.Length, v.Curl, v.Stock, v.Sales); err != nil {
				return fmt.Errorf("postgres: save variant %s: %w", v.Selector, err)
			}
		}
		return nil
	})
}

func (r *InventoryRepository) Decrement(ctx context.Context, line domain.Line) error {
	return decrement(ctx, r.pool, line)
}

func (r *InventoryRepository) DecrementAll(ctx context.Context, lines []domain.Line) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, line := range lines {
			if err := decrement(ctx, tx, line); err != nil {
				return err
			}
		}
		return nil
	})
}

func decrement(ctx context.Context, q querier, line domain.Line) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, line.Quantity)
	}

	if line.Variant != nil {
		tag, err := q.Exec(ctx, decrementVariant, line.ProductID, line.Variant.Length, line.Variant.Curl, line.Quantity)
		if err != nil {
			return fmt.Errorf("postgres: decrement variant: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}

	// A selector on a simple product is ignored, same as Product.Deduct.
	tag, err := q.Exec(ctx, decrementSimple, line.ProductID, line.Quantity)
	if err != nil {
		return fmt.Errorf("postgres: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return explainRefusal(ctx, q, line)
}

// explainRefusal re-reads the product after a refused decrement to build
// the typed error. The read is not atomic with the refused UPDATE, so a
// concurrent restock can raise the stock in between; insufficientStock
// clamps the reported figure.
func explainRefusal(ctx context.Context, q querier, line domain.Line) error {
	p, err := getProduct(ctx, q, line.ProductID)
	if err != nil {
		return err
	}
	available, err := p.Available(line.Variant)
	if err != nil {
		return err
	}
	return insufficientStock(p, line, available)
}

func insufficientStock(p *domain.Product, line domain.Line, available int) *domain.InsufficientStockError {
	e := &domain.InsufficientStockError{
		ProductID: p.ID,
		Available: min(available, line.Quantity-1),
		Requested: line.Quantity,
	}
	if p.IsCombination() && line.Variant != nil {
		sel := *line.Variant
		e.Variant = &sel
	}
	return e
}

func getProduct(ctx context.Context, q querier, productID string) (*domain.Product, error) {
	var (
		p           domain.Product
		combination bool
		stock       int
		total       int
	)
	err := q.QueryRow(ctx, `SELECT id, title, is_combination, stock, total_stock, sales FROM products WHERE id = $1`,
		productID).Scan(&p.ID, &p.Title, &combination, &stock, &total, &p.Sales)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	if !combination {
		p.Stock = domain.SimpleStock{Quantity: stock}
		return &p, nil
	}

	rows, err := q.Query(ctx, `SELECT length, curl, stock, sales FROM product_variants
		WHERE product_id = $1 ORDER BY length, curl`, productID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get variants: %w", err)
	}
	defer rows.Close()
	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.Length, &v.Curl, &v.Stock, &v.Sales); err != nil {
			return nil, fmt.Errorf("postgres: scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: get variants: %w", err)
	}
	p.Stock = domain.CombinationStock{Variants: variants, Total: total}
	return &p, nil
}
