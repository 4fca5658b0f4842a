package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("inventory: product not found")
	ErrVariantNotFound   = errors.New("inventory: variant not found")
	ErrVariantRequired   = errors.New("inventory: combination product requires length and curl")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
)

// InsufficientStockError carries the figures observed when a decrement was refused.
type InsufficientStockError struct {
	ProductID string
	Variant   *Selector
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	if e.Variant != nil {
		return fmt.Sprintf("Insufficient stock for %s %s variant. Available: %d, Requested: %d",
			e.Variant.Length, e.Variant.Curl, e.Available, e.Requested)
	}
	return fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type VariantNotFoundError struct {
	ProductID string
	Variant   Selector
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("inventory: variant %s not found on product %s", e.Variant, e.ProductID)
}

func (e *VariantNotFoundError) Is(target error) bool { return target == ErrVariantNotFound }

// IsStockError reports whether err is one of the ledger's business outcomes,
// as opposed to an infrastructure failure.
func IsStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrVariantNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrVariantRequired) ||
		errors.Is(err, ErrInvalidQuantity)
}
