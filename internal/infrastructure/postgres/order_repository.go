package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
)

const orderColumns = `id, invoice, user_id, user_info, cart, sub_total, discount, shipping_cost,
	total, currency, payment_method, status, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, now: time.Now}
}

type userInfoRecord struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

type lineRecord struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Length    string `json:"selectedLength,omitempty"`
	Curl      string `json:"selectedCurl,omitempty"`
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	info, cart, err := encodeOrder(o)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.Invoice, o.UserID, info, cart,
		o.Totals.SubTotal, o.Totals.Discount, o.Totals.ShippingCost, o.Totals.Total,
		o.Currency, o.PaymentMethod, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "idx_orders_invoice"):
		return fmt.Errorf("%w: %d", domain.ErrDuplicateInvoice, o.Invoice)
	case isUniqueViolation(err, ""):
		return domain.ErrConflict
	default:
		return fmt.Errorf("postgres: insert order: %w", err)
	}
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return findOrder(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page domain.Page) (*domain.UserOrders, error) {
	page = page.Normalize()
	out := &domain.UserOrders{
		Page:    page,
		Summary: make(map[domain.Status]domain.StatusSummary, len(domain.Statuses)),
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(total), 0)::BIGINT
		FROM orders WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: summarize orders: %w", err)
	}
	for rows.Next() {
		var status string
		var s domain.StatusSummary
		if err := rows.Scan(&status, &s.Count, &s.Amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: scan summary: %w", err)
		}
		out.Summary[domain.Status(status)] = s
		out.TotalDocs += s.Count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: summarize orders: %w", err)
	}

	rows, err = r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, invoice DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out.Orders = append(out.Orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	return out, nil
}

// UpdateStatus locks the row so concurrent admin changes apply one at a time.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	var updated *domain.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := findOrder(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := o.TransitionTo(status, r.now()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
			o.ID, string(o.Status), o.UpdatedAt); err != nil {
			return fmt.Errorf("postgres: update order status: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *OrderRepository) MaxInvoice(ctx context.Context) (int64, error) {
	var highest int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(invoice), 0) FROM orders`).Scan(&highest); err != nil {
		return 0, fmt.Errorf("postgres: max invoice: %w", err)
	}
	return highest, nil
}

func findOrder(ctx context.Context, q querier, sql string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return o, err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o          domain.Order
		info, cart []byte
		status     string
	)
	err := row.Scan(&o.ID, &o.Invoice, &o.UserID, &info, &cart,
		&o.Totals.SubTotal, &o.Totals.Discount, &o.Totals.ShippingCost, &o.Totals.Total,
		&o.Currency, &o.PaymentMethod, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: scan order: %w", err)
	}
	o.Status = domain.Status(status)
	if err := decodeOrder(&o, info, cart); err != nil {
		return nil, err
	}
	return &o, nil
}

func encodeOrder(o *domain.Order) ([]byte, []byte, error) {
	info, err := json.Marshal(userInfoRecord(o.UserInfo))
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: encode user info: %w", err)
	}
	lines := make([]lineRecord, 0, len(o.Cart))
	for _, li := range o.Cart {
		rec := lineRecord{ProductID: li.ProductID, Name: li.Name, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
		if li.Variant != nil {
			rec.Length, rec.Curl = li.Variant.Length, li.Variant.Curl
		}
		lines = append(lines, rec)
	}
	cart, err := json.Marshal(lines)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: encode cart: %w", err)
	}
	return info, cart, nil
}

func decodeOrder(o *domain.Order, info, cart []byte) error {
	var rec userInfoRecord
	if err := json.Unmarshal(info, &rec); err != nil {
		return fmt.Errorf("postgres: decode user info: %w", err)
	}
	o.UserInfo = domain.UserInfo(rec)

	var lines []lineRecord
	if err := json.Unmarshal(cart, &lines); err != nil {
		return fmt.Errorf("postgres: decode cart: %w", err)
	}
	o.Cart = make([]domain.LineItem, 0, len(lines))
	for _, l := range lines {
		li := domain.LineItem{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		if l.Length != "" || l.Curl != "" {
			li.Variant = &dominv.Selector{Length: l.Length, Curl: l.Curl}
		}
		o.Cart = append(o.Cart, li)
	}
	return nil
}
