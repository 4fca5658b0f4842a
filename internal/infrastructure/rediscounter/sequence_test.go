package rediscounter

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
)

func newSequence(t *testing.T) *InvoiceSequence {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := Dial(context.Background(), url)
	require.NoError(t, err)

	key := "test:invoice:" + uuid.NewString()
	t.Cleanup(func() {
		client.Del(context.Background(), key)
		_ = client.Close()
	})
	return NewInvoiceSequence(client, key, invoice.Start)
}

func TestNextStartsAtStart(t *testing.T) {
	seq := newSequence(t)
	ctx := context.Background()

	n, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, invoice.Start, n)

	n, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, invoice.Start+1, n)
}

func TestSeedNeverLowersCounter(t *testing.T) {
	seq := newSequence(t)
	ctx := context.Background()

	require.NoError(t, seq.Seed(ctx, 20000))
	n, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20001), n)

	require.NoError(t, seq.Seed(ctx, 15000))
	n, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20002), n)
}

func TestNextUniqueUnderConcurrency(t *testing.T) {
	seq := newSequence(t)
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{})
	)
	var g errgroup.Group
	for range 100 {
		g.Go(func() error {
			n, err := seq.Next(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 100)
}
