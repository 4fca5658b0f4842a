package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIntentNotFound   = errors.New("payment: intent not found")
	ErrAmountOutOfRange = errors.New("payment: amount out of range")
)

type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"
)

// Intent is the gateway's payment intent. Amount is in the smallest currency unit.
type Intent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       Status
	ClientSecret string
	Description  string
}

type CreateParams struct {
	Amount      int64
	Currency    string
	Description string
}

// Gateway is the payment processor. Retrieve returns ErrIntentNotFound
// when the processor does not know the id.
type Gateway interface {
	Retrieve(ctx context.Context, id string) (*Intent, error)
	UpdateAmount(ctx context.Context, id string, amount int64) (*Intent, error)
	Create(ctx context.Context, params CreateParams) (*Intent, error)
}

// Bounds is the inclusive amount range accepted for a currency.
type Bounds struct {
	Min int64
	Max int64
}

// INRBounds apply to Indian rupee payments in paise.
var INRBounds = Bounds{Min: 100, Max: 10_000_000}

// BoundsFor returns the INR range for INR and fallback for every other currency.
func BoundsFor(currency string, fallback Bounds) Bounds {
	if strings.EqualFold(currency, "INR") {
		return INRBounds
	}
	return fallback
}

func (b Bounds) Check(amount int64, currency string) error {
	if amount < b.Min || amount > b.Max {
		return fmt.Errorf("%w: %d %s outside [%d, %d]",
			ErrAmountOutOfRange, amount, strings.ToUpper(currency), b.Min, b.Max)
	}
	return nil
}
