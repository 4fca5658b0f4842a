package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

const (
	inventoryService    = "inventory-service"
	useCaseReserveStock = "inventory.reserve"
)

type Mode string

const (
	// ModePerLine decrements each line on its own; earlier lines stay applied when a later one fails.
	ModePerLine Mode = "per_line"
	// ModeAllOrNothing applies the whole cart in one transaction.
	ModeAllOrNothing Mode = "all_or_nothing"
)

type ReserveStockInput struct {
	OrderID string
	Lines   []dominv.Line
	// Mode overrides the use case's configured mode when set.
	Mode Mode
}

type LineOutcome struct {
	Line dominv.Line
	Err  error
}

func (o LineOutcome) Reserved() bool { return o.Err == nil }

type ReservationReport struct {
	Lines []LineOutcome
}

// Failed returns the lines that were not reserved.
func (r *ReservationReport) Failed() []LineOutcome {
	if r == nil {
		return nil
	}
	var out []LineOutcome
	for _, l := range r.Lines {
		if !l.Reserved() {
			out = append(out, l)
		}
	}
	return out
}

// ReserveStockUseCase is the variant stock ledger entry point.
type ReserveStockUseCase struct {
	repo    dominv.Repository
	mode    Mode
	timeout time.Duration
	inst    application.Instruments

	lineCounter observability.Counter // stock_reservation_lines_total{outcome}
}

func NewReserveStockUseCase(repo dominv.Repository, mode Mode, timeout time.Duration, tel observability.Observability) *ReserveStockUseCase {
	if mode == "" {
		mode = ModePerLine
	}
	inst := application.NewInstruments(tel, inventoryService)
	return &ReserveStockUseCase{
		repo:        repo,
		mode:        mode,
		timeout:     timeout,
		inst:        inst,
		lineCounter: inst.Metrics.Counter(observability.MStockReservationLines),
	}
}

// Execute decrements stock for every line. Business rejections (missing
// product or variant, insufficient stock) are collected per line and returned
// together; infrastructure failures stop processing and are returned as
// persistence errors.
func (uc *ReserveStockUseCase) Execute(ctx context.Context, in ReserveStockInput) (_ *ReservationReport, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseReserveStock),
		observability.F("order_id", in.OrderID),
	)

	mode := uc.mode
	if in.Mode != "" {
		mode = in.Mode
	}

	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"ReserveStock",
		attribute.String("use_case", useCaseReserveStock),
		attribute.String("order.id", in.OrderID),
		attribute.String("inventory.mode", string(mode)),
		attribute.Int("inventory.lines", len(in.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	report := &ReservationReport{}

	defer func() {
		uc.inst.Done(ctx, span, useCaseReserveStock, start, outcome, statusText, err, logger,
			observability.F("lines", len(in.Lines)),
			observability.F("lines_failed", len(report.Failed())),
		)
	}()

	if mode != ModePerLine && mode != ModeAllOrNothing {
		outcome, statusText = "error", "MODE_INVALID"
		return nil, application.Validationf(useCaseReserveStock, "unknown reservation mode %q", mode)
	}
	if len(in.Lines) == 0 {
		outcome, statusText = "error", "NO_LINES"
		return nil, application.Validationf(useCaseReserveStock, "no lines to reserve")
	}
	for i, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			outcome, statusText = "error", "LINE_INVALID"
			return nil, application.Validationf(useCaseReserveStock, "line %d: product id and a positive quantity are required", i)
		}
	}

	if mode == ModeAllOrNothing {
		err = uc.reserveAll(ctx, in.Lines, report, logger)
	} else {
		err = uc.reservePerLine(ctx, in.Lines, report, logger)
	}
	if err != nil {
		switch application.KindOf(err) {
		case application.KindPersistence:
			outcome, statusText = "error", "STORE_FAILED"
		default:
			outcome, statusText = "rejected", "STOCK_REJECTED"
		}
		span.SetAttributes(attribute.Int("inventory.lines_failed", len(report.Failed())))
		return report, err
	}
	return report, nil
}

// reservePerLine attempts every line so the report names each short line,
// including those after the first refusal.
func (uc *ReserveStockUseCase) reservePerLine(ctx context.Context, lines []dominv.Line, report *ReservationReport, logger observability.Logger) error {
	var rejected error
	for _, line := range lines {
		lineErr := uc.decrement(ctx, func(ctx context.Context) error {
			return uc.repo.Decrement(ctx, line)
		})
		report.Lines = append(report.Lines, LineOutcome{Line: line, Err: lineErr})
		uc.lineCounter.Add(1, observability.L("outcome", lineOutcome(lineErr)))

		if lineErr == nil {
			continue
		}
		if !dominv.IsStockError(lineErr) {
			return application.Persistence(useCaseReserveStock, fmt.Errorf("product %s: %w", line.ProductID, lineErr))
		}
		logLineRejected(logger, line, lineErr)
		rejected = multierr.Append(rejected, lineErr)
	}
	if rejected != nil {
		return classify(rejected)
	}
	return nil
}

func (uc *ReserveStockUseCase) reserveAll(ctx context.Context, lines []dominv.Line, report *ReservationReport, logger observability.Logger) error {
	err := uc.decrement(ctx, func(ctx context.Context) error {
		return uc.repo.DecrementAll(ctx, lines)
	})
	for _, line := range lines {
		report.Lines = append(report.Lines, LineOutcome{Line: line, Err: err})
		uc.lineCounter.Add(1, observability.L("outcome", lineOutcome(err)))
	}
	if err == nil {
		return nil
	}
	if !dominv.IsStockError(err) {
		return application.Persistence(useCaseReserveStock, err)
	}
	logger.Warn("stock_cart_rejected", observability.F("error", err.Error()))
	return classify(err)
}

func (uc *ReserveStockUseCase) decrement(ctx context.Context, fn func(context.Context) error) error {
	if uc.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return fn(ctx)
}

// classify picks the error kind of the first rejected line.
func classify(err error) error {
	first := multierr.Errors(err)[0]
	switch {
	case errors.Is(first, dominv.ErrInsufficientStock):
		return application.Conflict(useCaseReserveStock, err)
	case errors.Is(first, dominv.ErrProductNotFound), errors.Is(first, dominv.ErrVariantNotFound):
		return application.NotFound(useCaseReserveStock, err)
	default:
		return application.Validation(useCaseReserveStock, err)
	}
}

func lineOutcome(err error) string {
	switch {
	case err == nil:
		return "reserved"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, dominv.ErrVariantNotFound):
		return "variant_not_found"
	case errors.Is(err, dominv.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, dominv.ErrVariantRequired), errors.Is(err, dominv.ErrInvalidQuantity):
		return "invalid_line"
	default:
		return "error"
	}
}

func logLineRejected(logger observability.Logger, line dominv.Line, err error) {
	fields := []observability.Field{
		observability.F("product_id", line.ProductID),
		observability.F("quantity", line.Quantity),
		observability.F("reason", lineOutcome(err)),
		observability.F("error", err.Error()),
	}
	if line.Variant != nil {
		fields = append(fields,
			observability.F("length", line.Variant.Length),
			observability.F("curl", line.Variant.Curl),
		)
	}
	var insufficient *dominv.InsufficientStockError
	if errors.As(err, &insufficient) {
		fields = append(fields, observability.F("available", insufficient.Available))
	}
	logger.Warn("stock_line_rejected", fields...)
}
