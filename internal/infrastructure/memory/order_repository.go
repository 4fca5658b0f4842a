package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
)

// OrderRepository enforces unique ids and unique invoices the way the
// database indexes do.
type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	invoices map[int64]string
	now      func() time.Time
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   make(map[string]*domain.Order),
		invoices: make(map[int64]string),
		now:      time.Now,
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[order.Invoice]; exists {
		return fmt.Errorf("%w: %d", domain.ErrDuplicateInvoice, order.Invoice)
	}
	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}

	r.orders[order.ID] = order.Clone()
	r.invoices[order.Invoice] = order.ID
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page domain.Page) (*domain.UserOrders, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.Normalize()

	r.mu.RLock()
	mine := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	summary := make(map[domain.Status]domain.StatusSummary, len(domain.Statuses))
	for _, o := range mine {
		s := summary[o.Status]
		s.Count++
		s.Amount += o.Totals.Total
		summary[o.Status] = s
	}
	sort.Slice(mine, func(i, j int) bool {
		if mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].Invoice > mine[j].Invoice
		}
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	out := make([]*domain.Order, 0, page.Limit)
	for i := page.Offset(); i < len(mine) && len(out) < page.Limit; i++ {
		out = append(out, mine[i].Clone())
	}
	r.mu.RUnlock()

	return &domain.UserOrders{
		Orders:    out,
		Page:      page,
		TotalDocs: int64(len(mine)),
		Summary:   summary,
	}, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := current.Clone()
	if err := next.TransitionTo(status, r.now()); err != nil {
		return nil, err
	}
	r.orders[id] = next
	return next.Clone(), nil
}

func (r *OrderRepository) MaxInvoice(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var highest int64
	for inv := range r.invoices {
		if inv > highest {
			highest = inv
		}
	}
	return highest, nil
}
