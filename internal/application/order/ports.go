package order

import (
	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	appinv "github.com/subham007-coder/Supar-Admin-Backend/internal/application/inventory"
)

type IDGenerator interface {
	NewID() string
}

// StockReserver is satisfied by the stock ledger use case.
type StockReserver = application.UseCase[appinv.ReserveStockInput, *appinv.ReservationReport]

type ReservationPolicy string

const (
	// PolicyLenient keeps the order when stock cannot be reserved and reports the drift.
	PolicyLenient ReservationPolicy = "lenient"
	// PolicyStrict reserves the cart all or nothing, then cancels the persisted
	// order and fails the request when any line is refused.
	PolicyStrict ReservationPolicy = "strict"
)
