package order

import "context"

const (
	DefaultPage  = 1
	DefaultLimit = 8
)

type Page struct {
	Number int
	Limit  int
}

// Normalize applies the storefront defaults for missing or non-positive values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type StatusSummary struct {
	Count int64
	// Amount sums order totals in the smallest currency unit.
	Amount int64
}

// UserOrders is one page of a customer's orders, newest first, plus
// aggregates computed over all of that customer's orders.
type UserOrders struct {
	Orders    []*Order
	Page      Page
	TotalDocs int64
	Summary   map[Status]StatusSummary
}

type Repository interface {
	// Insert returns ErrDuplicateInvoice when the invoice is taken and ErrConflict when the id is.
	Insert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, page Page) (*UserOrders, error)
	// UpdateStatus applies TransitionTo atomically and returns the updated order.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	MaxInvoice(ctx context.Context) (int64, error)
}
