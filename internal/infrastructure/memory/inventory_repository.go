package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
)

// InventoryRepository keeps products in a map. Each decrement checks and
// applies under the write lock, so concurrent callers can never overdraw.
type InventoryRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return p.Clone(), nil
}

func (r *InventoryRepository) Save(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p.Clone()
	return nil
}

func (r *InventoryRepository) Decrement(ctx context.Context, line domain.Line) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.decrementLocked(line)
}

func (r *InventoryRepository) DecrementAll(ctx context.Context, lines []domain.Line) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]*domain.Product, len(lines))
	for _, line := range lines {
		p, ok := staged[line.ProductID]
		if !ok {
			current, exists := r.products[line.ProductID]
			if !exists {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
			}
			p = current.Clone()
			staged[line.ProductID] = p
		}
		if err := p.Deduct(line); err != nil {
			return err
		}
	}
	for id, p := range staged {
		r.products[id] = p
	}
	return nil
}

func (r *InventoryRepository) decrementLocked(line domain.Line) error {
	current, ok := r.products[line.ProductID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
	}
	next := current.Clone()
	if err := next.Deduct(line); err != nil {
		return err
	}
	r.products[line.ProductID] = next
	return nil
}
