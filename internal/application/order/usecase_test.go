package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	appinv "github.com/subham007-coder/Supar-Admin-Backend/internal/application/inventory"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	domoutbox "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/outbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/memory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability/zaplogger"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

type counterIDs struct{ n atomic.Int64 }

func (c *counterIDs) NewID() string { return fmt.Sprintf("order-%d", c.n.Add(1)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type scriptedSequence struct {
	mu     sync.Mutex
	values []int64
	calls  int
}

func (s *scriptedSequence) Next(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[min(s.calls, len(s.values)-1)]
	s.calls++
	return v, nil
}

type fixture struct {
	orders    *memory.OrderRepository
	inventory *memory.InventoryRepository
	publisher *recordingPublisher
	uc        *PlaceOrderUseCase
}

func newFixture(t *testing.T, seq invoice.Sequence, policy ReservationPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		orders:    memory.NewOrderRepository(),
		inventory: memory.NewInventoryRepository(),
		publisher: &recordingPublisher{},
	}
	glue, err := dominv.NewSimpleProduct("glue-1", "Lash Glue", 5)
	require.NoError(t, err)
	require.NoError(t, f.inventory.Save(ctx, glue))
	lashes, err := dominv.NewCombinationProduct("lash-1", "Classic Lashes", []dominv.Variant{
		{Selector: dominv.Selector{Length: "10mm", Curl: "C"}, Stock: 4},
	})
	require.NoError(t, err)
	require.NoError(t, f.inventory.Save(ctx, lashes))

	if seq == nil {
		seq = memory.NewInvoiceSequence(invoice.Start, 0)
	}
	ledger := appinv.NewReserveStockUseCase(f.inventory, appinv.ModePerLine, time.Second, nil)
	f.uc = NewPlaceOrderUseCase(f.orders, seq, ledger, &counterIDs{}, f.publisher,
		PlaceOrderOptions{MaxInvoiceAttempts: 3, Policy: policy, DBTimeout: time.Second, Currency: "INR"}, nil)
	return f
}

func glueOrder(qty int) PlaceOrderInput {
	price := int64(9900)
	sub := price * int64(qty)
	return PlaceOrderInput{
		UserID:        "user-1",
		UserInfo:      domain.UserInfo{Name: "Asha", Email: "asha@example.com"},
		Cart:          []domain.LineItem{{ProductID: "glue-1", Name: "Lash Glue", Quantity: qty, UnitPrice: price}},
		Totals:        domain.Totals{SubTotal: sub, ShippingCost: 500, Total: sub + 500},
		Currency:      "INR",
		PaymentMethod: "Card",
	}
}

func stockOf(t *testing.T, f *fixture, id string) dominv.Stock {
	t.Helper()
	p, err := f.inventory.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyLenient)

	res, err := f.uc.Execute(ctx, glueOrder(2))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), res.Order.Invoice)
	assert.Equal(t, domain.StatusPending, res.Order.Status)
	assert.Empty(t, res.StockIssues)
	assert.True(t, res.NotificationQueued)
	assert.Equal(t, dominv.SimpleStock{Quantity: 3}, stockOf(t, f, "glue-1"))

	stored, err := f.orders.FindByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.Invoice, stored.Invoice)
	assert.Equal(t, stored.Totals.SubTotal-stored.Totals.Discount+stored.Totals.ShippingCost, stored.Totals.Total)

	require.Len(t, f.publisher.events, 1)
	placed, ok := f.publisher.events[0].(domain.PlacedEvent)
	require.True(t, ok)
	assert.Equal(t, res.Order.ID, placed.Order.ID)
}

func TestPlaceOrderRejectsForeignCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyLenient)

	in := glueOrder(1)
	in.Currency = "USD"
	_, err := f.uc.Execute(ctx, in)
	assert.Equal(t, application.KindValidation, application.KindOf(err))
	assert.Equal(t, dominv.SimpleStock{Quantity: 5}, stockOf(t, f, "glue-1"))

	in.Currency = "inr"
	res, err := f.uc.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), res.Order.Invoice)
}

func TestPlaceOrderWarnsOnSubtotalMismatch(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logctx.With(context.Background(), zaplogger.New(zap.New(core)))
	f := newFixture(t, nil, PolicyLenient)

	in := glueOrder(2)
	in.Totals.SubTotal -= 100
	in.Totals.Total -= 100

	_, err := f.uc.Execute(ctx, in)
	require.NoError(t, err)

	entries := logs.FilterMessage("order_subtotal_mismatch").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(19800), entries[0].ContextMap()["cart_subtotal"])
	assert.Equal(t, int64(19700), entries[0].ContextMap()["subtotal"])

	logs.TakeAll()
	_, err = f.uc.Execute(ctx, glueOrder(1))
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("order_subtotal_mismatch").Len())
}

func TestPlaceOrderConcurrentInvoicesAreUnique(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)
	const n = 50

	var mu sync.Mutex
	invoices := make(map[int64]struct{}, n)
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			res, err := f.uc.Execute(context.Background(), glueOrder(1))
			if err != nil {
				return err
			}
			mu.Lock()
			invoices[res.Order.Invoice] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, invoices, n)
	for inv := range invoices {
		assert.GreaterOrEqual(t, inv, invoice.Start)
	}
	assert.Equal(t, dominv.SimpleStock{Quantity: 0}, stockOf(t, f, "glue-1"))
}

func TestPlaceOrderIdenticalSubmissionsAreNotDeduplicated(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)

	first, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)
	second, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)

	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.NotEqual(t, first.Order.Invoice, second.Order.Invoice)
	assert.Equal(t, dominv.SimpleStock{Quantity: 3}, stockOf(t, f, "glue-1"))
}

func TestPlaceOrderRetriesOnDuplicateInvoice(t *testing.T) {
	seq := &scriptedSequence{values: []int64{10000, 10000, 10001}}
	f := newFixture(t, seq, PolicyLenient)

	taken, err := domain.New("legacy", 10000, domain.Draft{
		UserID: "user-0", Cart: []domain.LineItem{{ProductID: "glue-1", Quantity: 1}},
		Currency: "INR", PaymentMethod: "Cash",
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.orders.Insert(context.Background(), taken))

	res, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)
	assert.Equal(t, int64(10001), res.Order.Invoice)
	assert.Equal(t, 3, seq.calls)
}

func TestPlaceOrderInvoiceRetriesExhausted(t *testing.T) {
	seq := &scriptedSequence{values: []int64{10000}}
	f := newFixture(t, seq, PolicyLenient)

	_, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), glueOrder(1))
	assert.Equal(t, application.KindPersistence, application.KindOf(err))
	assert.ErrorIs(t, err, invoice.ErrExhausted)
	assert.Equal(t, 4, seq.calls)
	assert.Equal(t, dominv.SimpleStock{Quantity: 4}, stockOf(t, f, "glue-1"))
}

func TestPlaceOrderLenientKeepsOrderOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyLenient)

	res, err := f.uc.Execute(ctx, glueOrder(6))
	require.NoError(t, err)

	require.Len(t, res.StockIssues, 1)
	assert.Equal(t, "glue-1", res.StockIssues[0].ProductID)
	assert.Contains(t, res.StockIssues[0].Message, "Available: 5, Requested: 6")
	assert.Equal(t, dominv.SimpleStock{Quantity: 5}, stockOf(t, f, "glue-1"))

	stored, err := f.orders.FindByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Len(t, f.publisher.events, 1)
}

func TestPlaceOrderStrictCancelsOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyStrict)

	res, err := f.uc.Execute(ctx, glueOrder(6))
	assert.Equal(t, application.KindConflict, application.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, domain.StatusCancelled, res.Order.Status)

	stored, err := f.orders.FindByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, int64(10000), stored.Invoice)
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrderStrictLeavesEarlierLinesUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyStrict)

	in := glueOrder(2)
	lashes := domain.LineItem{
		ProductID: "lash-1",
		Name:      "Classic Lashes",
		Quantity:  9,
		UnitPrice: 49950,
		Variant:   &dominv.Selector{Length: "10mm", Curl: "C"},
	}
	in.Cart = append(in.Cart, lashes)
	in.Totals.SubTotal += lashes.Total()
	in.Totals.Total += lashes.Total()

	res, err := f.uc.Execute(ctx, in)
	assert.Equal(t, application.KindConflict, application.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, domain.StatusCancelled, res.Order.Status)

	assert.Equal(t, dominv.SimpleStock{Quantity: 5}, stockOf(t, f, "glue-1"))
	glue, err := f.inventory.Get(ctx, "glue-1")
	require.NoError(t, err)
	assert.Zero(t, glue.Sales)

	lash, ok := stockOf(t, f, "lash-1").(dominv.CombinationStock)
	require.True(t, ok)
	assert.Equal(t, 4, lash.Total)
}

func TestPlaceOrderConcurrentCheckoutsOnLastUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, PolicyLenient)

	results := make([]*PlaceOrderResult, 2)
	var g errgroup.Group
	for i := range 2 {
		g.Go(func() error {
			res, err := f.uc.Execute(ctx, glueOrder(3))
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	issues := len(results[0].StockIssues) + len(results[1].StockIssues)
	assert.Equal(t, 1, issues)
	assert.Equal(t, dominv.SimpleStock{Quantity: 2}, stockOf(t, f, "glue-1"))
	assert.NotEqual(t, results[0].Order.Invoice, results[1].Order.Invoice)
}

func TestPlaceOrderPublishFailureIsSoft(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)
	f.publisher.err = errors.New("queue full")

	res, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)
	assert.False(t, res.NotificationQueued)
}

func TestPlaceOrderValidationConsumesNoInvoice(t *testing.T) {
	seq := &scriptedSequence{values: []int64{10000}}
	f := newFixture(t, seq, PolicyLenient)

	in := glueOrder(1)
	in.Cart = nil
	_, err := f.uc.Execute(context.Background(), in)
	assert.Equal(t, application.KindValidation, application.KindOf(err))

	in = glueOrder(1)
	in.Totals.Total++
	_, err = f.uc.Execute(context.Background(), in)
	assert.Equal(t, application.KindValidation, application.KindOf(err))

	assert.Equal(t, 0, seq.calls)
}

type failingStock struct{}

func (failingStock) Execute(context.Context, appinv.ReserveStockInput) (*appinv.ReservationReport, error) {
	return &appinv.ReservationReport{}, application.Persistence("inventory.reserve", context.DeadlineExceeded)
}

func TestPlaceOrderStockStoreFailureIsHard(t *testing.T) {
	ctx := context.Background()
	orders := memory.NewOrderRepository()
	uc := NewPlaceOrderUseCase(orders, memory.NewInvoiceSequence(invoice.Start, 0), failingStock{},
		&counterIDs{}, nil, PlaceOrderOptions{}, nil)

	_, err := uc.Execute(ctx, glueOrder(1))
	assert.Equal(t, application.KindPersistence, application.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := orders.ListByUser(ctx, "user-1", domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TotalDocs)
}
