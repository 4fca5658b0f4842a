package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	domoutbox "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/outbox"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var got atomic.Int32
	for range 3 {
		bus.Subscribe("order.placed", func(context.Context, domoutbox.Event) error {
			got.Add(1)
			return nil
		})
	}
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "unrouted"}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, int32(3), got.Load())
}

func TestBusSurvivesFailingAndPanickingHandlers(t *testing.T) {
	bus := NewBus(nil, WithConcurrency(1))
	var ok atomic.Int32
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { return errors.New("smtp down") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		ok.Add(1)
		return nil
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, int32(1), ok.Load())
}

func TestBusHandlerContextHasTimeout(t *testing.T) {
	bus := NewBus(nil, WithHandlerTimeout(20*time.Millisecond))
	var deadlineSeen atomic.Bool
	bus.Subscribe("e", func(ctx context.Context, _ domoutbox.Event) error {
		_, has := ctx.Deadline()
		deadlineSeen.Store(has)
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)
	cancel()

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	require.NoError(t, bus.Stop(context.Background()))
	assert.True(t, deadlineSeen.Load())
}

func TestBusRejectsPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	require.NoError(t, bus.Stop(context.Background()))

	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "e"}), ErrClosed)
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBusPublishHonoursContextWhenFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent{name: "e"}), context.DeadlineExceeded)

	require.NoError(t, bus.Stop(context.Background()))
}
