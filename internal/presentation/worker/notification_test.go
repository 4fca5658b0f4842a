package workerpresentation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appnotif "github.com/subham007-coder/Supar-Admin-Backend/internal/application/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/outbox"
	infraoutbox "github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/outbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability/zaplogger"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

type captureSubscriber struct {
	handlers map[string]outbox.Handler
}

func (s *captureSubscriber) Subscribe(name string, h outbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]outbox.Handler)
	}
	s.handlers[name] = h
}

type fakeSender struct {
	mu     sync.Mutex
	orders []*order.Order
	ctxs   []context.Context
	err    error
}

func (f *fakeSender) Execute(ctx context.Context, in appnotif.SendConfirmationInput) (*appnotif.SendConfirmationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, in.Order)
	f.ctxs = append(f.ctxs, ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &appnotif.SendConfirmationResult{Recipient: in.Order.UserInfo.Email}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func TestRegisterOrderConfirmationForwardsPlacedOrder(t *testing.T) {
	sub := &captureSubscriber{}
	sender := &fakeSender{}
	RegisterOrderConfirmation(sub, sender, nil)

	h := sub.handlers["order.placed"]
	require.NotNil(t, h)

	o := &order.Order{ID: "o-1", Invoice: 10000}
	require.NoError(t, h(context.Background(), order.NewPlacedEvent(o, time.Now())))
	require.Len(t, sender.orders, 1)
	assert.Equal(t, int64(10000), sender.orders[0].Invoice)
	assert.NotNil(t, logctx.From(sender.ctxs[0]))
}

func TestRegisterOrderConfirmationReturnsSenderError(t *testing.T) {
	sub := &captureSubscriber{}
	boom := errors.New("notifier down")
	RegisterOrderConfirmation(sub, &fakeSender{err: boom}, nil)

	err := sub.handlers["order.placed"](context.Background(), order.NewPlacedEvent(&order.Order{ID: "o-1"}, time.Now()))
	assert.ErrorIs(t, err, boom)
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "order.placed" }

func TestRegisterOrderConfirmationRejectsUnexpectedPayload(t *testing.T) {
	sub := &captureSubscriber{}
	sender := &fakeSender{}
	RegisterOrderConfirmation(sub, sender, nil)

	err := sub.handlers["order.placed"](context.Background(), otherEvent{})
	assert.Error(t, err)
	assert.Zero(t, sender.count())
}

func TestRegisterOrderConfirmationThroughBus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	bus := infraoutbox.NewBus(zaplogger.New(zap.New(core)))
	sender := &fakeSender{}
	RegisterOrderConfirmation(bus, sender, nil)

	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, order.NewPlacedEvent(&order.Order{ID: "o-1", Invoice: 10001}, time.Now())))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))

	assert.Equal(t, 1, sender.count())
	assert.Equal(t, 1, logs.FilterMessage("event_fanned_out").Len())
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zaplogger.New(zap.New(core))

	ctx := WithEventContext(context.Background(), base, nil, trace.SpanContext{}, map[string]string{"event": "order.placed", "empty": ""})
	logctx.From(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotEmpty(t, fields["event_id"])
	assert.Equal(t, "order.placed", fields["event"])
	assert.NotContains(t, fields, "empty")
	assert.NotContains(t, fields, "trace_id")
}
