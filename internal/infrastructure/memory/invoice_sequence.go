package memory

import (
	"context"
	"sync"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
)

// InvoiceSequence is a process-local counter. It is only unique within one
// process, which matches the reach of the memory order store.
type InvoiceSequence struct {
	mu   sync.Mutex
	last int64
}

// NewInvoiceSequence starts handing out numbers after floor, never below start.
func NewInvoiceSequence(start, floor int64) *InvoiceSequence {
	if start <= 0 {
		start = invoice.Start
	}
	last := start - 1
	if floor > last {
		last = floor
	}
	return &InvoiceSequence{last: last}
}

func (s *InvoiceSequence) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	return s.last, nil
}
