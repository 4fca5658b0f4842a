// Package rediscounter hands out invoice numbers from a Redis counter so
// several service instances can share one sequence.
package rediscounter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
)

const DefaultKey = "orders:invoice:counter"

// raiseTo lifts the counter to ARGV[1] if it is lower. It never lowers it.
var raiseTo = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return current
`)

// next applies the start floor and increments in one atomic step.
var next = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
end
return redis.call('INCR', KEYS[1])
`)

type InvoiceSequence struct {
	client redis.Scripter
	key    string
	start  int64
}

// Dial parses url and checks the server answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("rediscounter: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rediscounter: ping: %w", err)
	}
	return client, nil
}

func NewInvoiceSequence(client redis.Scripter, key string, start int64) *InvoiceSequence {
	if key == "" {
		key = DefaultKey
	}
	if start <= 0 {
		start = invoice.Start
	}
	return &InvoiceSequence{client: client, key: key, start: start}
}

// Seed makes sure the next number is above highest, the largest invoice
// already persisted.
func (s *InvoiceSequence) Seed(ctx context.Context, highest int64) error {
	if err := raiseTo.Run(ctx, s.client, []string{s.key}, highest).Err(); err != nil {
		return fmt.Errorf("rediscounter: seed: %w", err)
	}
	return nil
}

func (s *InvoiceSequence) Next(ctx context.Context) (int64, error) {
	n, err := next.Run(ctx, s.client, []string{s.key}, s.start-1).Int64()
	if err != nil {
		return 0, fmt.Errorf("rediscounter: next: %w", err)
	}
	return n, nil
}
