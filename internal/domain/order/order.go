package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
)

var (
	ErrNotFound = errors.New("order: not found")
	ErrConflict = errors.New("order: already exists")
	// ErrDuplicateInvoice reports that another order already holds the invoice number.
	ErrDuplicateInvoice = errors.New("order: invoice already allocated")

	ErrInvalidOrder           = errors.New("order: invalid")
	ErrInvalidStateTransition = errors.New("order: invalid status transition")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, s)
}

type UserInfo struct {
	Name    string
	Email   string
	Contact string
	Address string
	City    string
	Country string
	ZipCode string
}

type LineItem struct {
	ProductID string
	Name      string
	Quantity  int
	// UnitPrice is in the smallest currency unit.
	UnitPrice int64
	Variant   *inventory.Selector
}

// Total is the line amount in the smallest currency unit.
func (li LineItem) Total() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Totals are in the smallest currency unit.
type Totals struct {
	SubTotal     int64
	Discount     int64
	ShippingCost int64
	Total        int64
}

type Order struct {
	ID            string
	Invoice       int64
	UserID        string
	UserInfo      UserInfo
	Cart          []LineItem
	Totals        Totals
	Currency      string
	PaymentMethod string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft carries the caller-supplied part of an order before an id and invoice are assigned.
type Draft struct {
	UserID        string
	UserInfo      UserInfo
	Cart          []LineItem
	Totals        Totals
	Currency      string
	PaymentMethod string
}

// Validate checks the draft shape and the totals identity Total = SubTotal - Discount + ShippingCost.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidOrder)
	}
	if len(d.Cart) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidOrder)
	}
	for i, li := range d.Cart {
		switch {
		case strings.TrimSpace(li.ProductID) == "":
			return fmt.Errorf("%w: line %d: product id is required", ErrInvalidOrder, i)
		case li.Quantity <= 0:
			return fmt.Errorf("%w: line %d: quantity must be greater than zero", ErrInvalidOrder, i)
		case li.UnitPrice < 0:
			return fmt.Errorf("%w: line %d: unit price must be zero or greater", ErrInvalidOrder, i)
		}
		if li.Variant != nil && !li.Variant.Complete() {
			return fmt.Errorf("%w: line %d: variant needs both length and curl", ErrInvalidOrder, i)
		}
	}
	t := d.Totals
	if t.SubTotal < 0 || t.Discount < 0 || t.ShippingCost < 0 || t.Total < 0 {
		return fmt.Errorf("%w: totals must be zero or greater", ErrInvalidOrder)
	}
	if t.Total != t.SubTotal-t.Discount+t.ShippingCost {
		return fmt.Errorf("%w: total %d does not equal subtotal %d - discount %d + shipping %d",
			ErrInvalidOrder, t.Total, t.SubTotal, t.Discount, t.ShippingCost)
	}
	if strings.TrimSpace(d.Currency) == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidOrder)
	}
	if strings.TrimSpace(d.PaymentMethod) == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidOrder)
	}
	return nil
}

// CartSubTotal sums the line totals.
func (d Draft) CartSubTotal() int64 {
	var sum int64
	for _, li := range d.Cart {
		sum += li.Total()
	}
	return sum
}

// New builds a pending order from a validated draft.
func New(id string, invoice int64, d Draft, now time.Time) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidOrder)
	}
	if invoice <= 0 {
		return nil, fmt.Errorf("%w: invoice must be positive", ErrInvalidOrder)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	o := &Order{
		ID:            id,
		Invoice:       invoice,
		UserID:        d.UserID,
		UserInfo:      d.UserInfo,
		Cart:          cloneCart(d.Cart),
		Totals:        d.Totals,
		Currency:      strings.ToUpper(d.Currency),
		PaymentMethod: d.PaymentMethod,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return o, nil
}

// ReservationLines maps the cart onto stock ledger lines.
func (o *Order) ReservationLines() []inventory.Line {
	lines := make([]inventory.Line, 0, len(o.Cart))
	for _, li := range o.Cart {
		line := inventory.Line{ProductID: li.ProductID, Quantity: li.Quantity}
		if li.Variant != nil {
			sel := *li.Variant
			line.Variant = &sel
		}
		lines = append(lines, line)
	}
	return lines
}

// Clone returns a deep copy so stores never share cart slices with callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Cart = cloneCart(o.Cart)
	return &c
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now.UTC()
}

func cloneCart(cart []LineItem) []LineItem {
	out := make([]LineItem, len(cart))
	for i, li := range cart {
		out[i] = li
		if li.Variant != nil {
			sel := *li.Variant
			out[i].Variant = &sel
		}
	}
	return out
}
