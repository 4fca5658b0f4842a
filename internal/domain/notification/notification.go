package notification

import (
	"context"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
)

// Merchant is the storefront identity printed on customer confirmations.
type Merchant struct {
	Company   string
	Email     string
	FromEmail string
	Address   string
	Phone     string
	Website   string
	VATNumber string
	Currency  string
}

type Confirmation struct {
	Order    *order.Order
	Merchant Merchant
}

// Notifier delivers order confirmations. Rendering and transport belong to the implementation.
type Notifier interface {
	OrderConfirmation(ctx context.Context, c Confirmation) error
}
