package invoice

import (
	"context"
	"errors"
)

// Start is the first invoice number handed out by an empty store.
const Start int64 = 10000

var ErrExhausted = errors.New("invoice: no unique number after retries")

// Sequence hands out invoice numbers. Each call returns a value no other
// caller has received, equal to the previous maximum plus one.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}
