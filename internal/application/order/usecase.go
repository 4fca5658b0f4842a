package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	appinv "github.com/subham007-coder/Supar-Admin-Backend/internal/application/inventory"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	domoutbox "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/outbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

const (
	orderService      = "order-service"
	useCaseOrderPlace = "order.place"
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond

	defaultInvoiceAttempts = 5
)

type PlaceOrderOptions struct {
	// MaxInvoiceAttempts bounds allocations when the invoice index rejects a number.
	MaxInvoiceAttempts int
	Policy             ReservationPolicy
	// DBTimeout bounds each store call.
	DBTimeout time.Duration
	// Currency, when set, is the only currency orders may be placed in.
	// Per-status list aggregates are summed in it.
	Currency string
}

type PlaceOrderInput struct {
	UserID        string
	UserInfo      domain.UserInfo
	Cart          []domain.LineItem
	Totals        domain.Totals
	Currency      string
	PaymentMethod string
}

// StockIssue describes a cart line whose stock could not be reserved.
type StockIssue struct {
	ProductID string
	Variant   *dominv.Selector
	Quantity  int
	Message   string
}

type PlaceOrderResult struct {
	Order              *domain.Order
	StockIssues        []StockIssue
	NotificationQueued bool
}

// PlaceOrderUseCase allocates an invoice, persists the order, reserves stock
// and queues the confirmation, in that order.
type PlaceOrderUseCase struct {
	repo        domain.Repository
	sequence    invoice.Sequence
	stock       StockReserver
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	opts        PlaceOrderOptions
	now         func() time.Time
	inst        application.Instruments

	conflictCounter observability.Counter // invoice_allocation_conflicts_total
}

func NewPlaceOrderUseCase(
	repo domain.Repository,
	sequence invoice.Sequence,
	stock StockReserver,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	opts PlaceOrderOptions,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if opts.MaxInvoiceAttempts < 1 {
		opts.MaxInvoiceAttempts = defaultInvoiceAttempts
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLenient
	}
	inst := application.NewInstruments(tel, orderService)
	return &PlaceOrderUseCase{
		repo:            repo,
		sequence:        sequence,
		stock:           stock,
		idGenerator:     idGen,
		publisher:       publisher,
		opts:            opts,
		now:             time.Now,
		inst:            inst,
		conflictCounter: inst.Metrics.Counter(observability.MInvoiceConflicts),
	}
}

// Execute runs the checkout. Identical submissions are not deduplicated:
// each call yields its own order and invoice.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseOrderPlace),
		observability.F("user_id", cmd.UserID),
	)

	var (
		entity     *domain.Order
		attempts   int
		publishErr error
		issues     []StockIssue
	)

	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"PlaceOrder",
		attribute.String("use_case", useCaseOrderPlace),
		attribute.String("order.user_id", cmd.UserID),
		attribute.Int("order.lines", len(cmd.Cart)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		fields := []observability.Field{
			observability.F("invoice_attempts", attempts),
			observability.F("stock_issues", len(issues)),
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		uc.inst.Done(ctx, span, useCaseOrderPlace, start, outcome, statusText, err, logger, fields...)
	}()

	draft := domain.Draft{
		UserID:        cmd.UserID,
		UserInfo:      cmd.UserInfo,
		Cart:          cmd.Cart,
		Totals:        cmd.Totals,
		Currency:      cmd.Currency,
		PaymentMethod: cmd.PaymentMethod,
	}
	if verr := draft.Validate(); verr != nil {
		outcome, statusText = "error", "ORDER_INVALID"
		return nil, application.Validation(useCaseOrderPlace, verr)
	}
	if uc.opts.Currency != "" && !strings.EqualFold(draft.Currency, uc.opts.Currency) {
		outcome, statusText = "error", "CURRENCY_UNSUPPORTED"
		return nil, application.Validationf(useCaseOrderPlace, "currency %s is not accepted; this store charges in %s",
			strings.ToUpper(draft.Currency), strings.ToUpper(uc.opts.Currency))
	}
	// The client's subtotal is authoritative; a mismatch with the cart is only reported.
	if cart := draft.CartSubTotal(); cart != draft.Totals.SubTotal {
		logger.Warn("order_subtotal_mismatch",
			observability.F("cart_subtotal", cart),
			observability.F("subtotal", draft.Totals.SubTotal),
		)
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	entity, attempts, err = uc.persist(ctx, draft, logger)
	if err != nil {
		outcome, statusText = "error", "ORDER_PERSIST_FAILED"
		if errors.Is(err, invoice.ErrExhausted) {
			statusText = "INVOICE_EXHAUSTED"
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.Int64("order.invoice", entity.Invoice),
	)
	logger = logger.With(
		observability.F("order_id", entity.ID),
		observability.F("invoice", entity.Invoice),
	)

	reserve := appinv.ReserveStockInput{
		OrderID: entity.ID,
		Lines:   entity.ReservationLines(),
	}
	// A strict rejection cancels the order, so no line may stay decremented.
	if uc.opts.Policy == PolicyStrict {
		reserve.Mode = appinv.ModeAllOrNothing
	}
	report, rerr := uc.stock.Execute(logctx.With(ctx, logger), reserve)
	issues = stockIssues(report)
	if rerr != nil {
		if application.KindOf(rerr) == application.KindPersistence {
			outcome, statusText = "error", "STOCK_STORE_FAILED"
			return nil, rerr
		}
		if uc.opts.Policy == PolicyStrict {
			outcome, statusText = "rejected", "STOCK_UNAVAILABLE"
			cancelled := uc.cancel(ctx, entity, logger)
			return &PlaceOrderResult{Order: cancelled, StockIssues: issues}, rerr
		}
		statusText = "STOCK_DRIFT"
		logger.Warn("order_stock_drift",
			observability.F("lines_failed", len(issues)),
			observability.F("error", rerr.Error()),
		)
		span.AddEvent("order.stock_drift")
	}

	publishErr = uc.publish(ctx, entity)
	span.AddEvent("order.placed", trace.WithAttributes(attribute.String("order.id", entity.ID)))

	return &PlaceOrderResult{
		Order:              entity,
		StockIssues:        issues,
		NotificationQueued: uc.publisher != nil && publishErr == nil,
	}, nil
}

// persist allocates invoice numbers until the store accepts one.
func (uc *PlaceOrderUseCase) persist(ctx context.Context, draft domain.Draft, logger observability.Logger) (*domain.Order, int, error) {
	for attempt := 1; attempt <= uc.opts.MaxInvoiceAttempts; attempt++ {
		number, err := uc.withTimeout(ctx, func(ctx context.Context) (int64, error) {
			return uc.sequence.Next(ctx)
		})
		if err != nil {
			return nil, attempt, application.Persistence(useCaseOrderPlace, fmt.Errorf("allocate invoice: %w", err))
		}

		entity, err := domain.New(uc.idGenerator.NewID(), number, draft, uc.now())
		if err != nil {
			return nil, attempt, application.Validation(useCaseOrderPlace, err)
		}

		_, err = uc.withTimeout(ctx, func(ctx context.Context) (int64, error) {
			return 0, uc.repo.Insert(ctx, entity)
		})
		switch {
		case err == nil:
			return entity, attempt, nil
		case errors.Is(err, domain.ErrDuplicateInvoice), errors.Is(err, domain.ErrConflict):
			uc.conflictCounter.Add(1)
			logger.Warn("invoice_conflict",
				observability.F("invoice", number),
				observability.F("attempt", attempt),
			)
			continue
		default:
			return nil, attempt, application.Persistence(useCaseOrderPlace, fmt.Errorf("insert order: %w", err))
		}
	}
	return nil, uc.opts.MaxInvoiceAttempts, application.Persistence(useCaseOrderPlace,
		fmt.Errorf("%w (%d attempts)", invoice.ErrExhausted, uc.opts.MaxInvoiceAttempts))
}

func (uc *PlaceOrderUseCase) cancel(ctx context.Context, entity *domain.Order, logger observability.Logger) *domain.Order {
	var cancelled *domain.Order
	_, err := uc.withTimeout(ctx, func(ctx context.Context) (int64, error) {
		var uerr error
		cancelled, uerr = uc.repo.UpdateStatus(ctx, entity.ID, domain.StatusCancelled)
		return 0, uerr
	})
	if err != nil {
		logger.Error("order_cancel_failed", observability.F("error", err.Error()))
		return entity
	}
	return cancelled
}

// publish enqueues the confirmation event. Failures are logged and never fail the checkout.
func (uc *PlaceOrderUseCase) publish(ctx context.Context, entity *domain.Order) error {
	if uc.publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	pubStart := time.Now()
	err := uc.publisher.Publish(pubCtx, domain.NewPlacedEvent(entity, uc.now()))
	uc.inst.External(publishPeer, publishEndpoint, application.ExternalOutcome(pubCtx, err), pubStart)
	if err != nil {
		logctx.FromOr(ctx, uc.inst.Log).Warn("order_event_publish_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}
	return err
}

func (uc *PlaceOrderUseCase) withTimeout(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	if uc.opts.DBTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.opts.DBTimeout)
	defer cancel()
	return fn(ctx)
}

func stockIssues(report *appinv.ReservationReport) []StockIssue {
	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}
	out := make([]StockIssue, 0, len(failed))
	for _, f := range failed {
		out = append(out, StockIssue{
			ProductID: f.Line.ProductID,
			Variant:   f.Line.Variant,
			Quantity:  f.Line.Quantity,
			Message:   f.Err.Error(),
		})
	}
	return out
}
