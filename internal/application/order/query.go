package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

const (
	useCaseOrderGet    = "order.get"
	useCaseOrderList   = "order.list_for_user"
	useCaseOrderStatus = "order.update_status"
)

type GetOrderUseCase struct {
	repo    domain.Repository
	timeout time.Duration
	inst    application.Instruments
}

func NewGetOrderUseCase(repo domain.Repository, timeout time.Duration, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo, timeout: timeout, inst: application.NewInstruments(tel, orderService)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id string) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseOrderGet),
		observability.F("order_id", id),
	)
	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"GetOrder",
		attribute.String("order.id", id),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	defer func() {
		uc.inst.Done(ctx, span, useCaseOrderGet, start, outcome, statusText, err, logger)
	}()

	if strings.TrimSpace(id) == "" {
		outcome, statusText = "error", "ID_REQUIRED"
		return nil, application.Validationf(useCaseOrderGet, "order id is required")
	}

	ctx, cancel := withOptionalTimeout(ctx, uc.timeout)
	defer cancel()

	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		outcome, statusText = "error", "REPO_FIND_FAILED"
		return nil, wrapRepositoryError(useCaseOrderGet, err)
	}
	return o, nil
}

type ListUserOrdersInput struct {
	UserID string
	Page   int
	Limit  int
}

type ListUserOrdersUseCase struct {
	repo    domain.Repository
	timeout time.Duration
	inst    application.Instruments
}

func NewListUserOrdersUseCase(repo domain.Repository, timeout time.Duration, tel observability.Observability) *ListUserOrdersUseCase {
	return &ListUserOrdersUseCase{repo: repo, timeout: timeout, inst: application.NewInstruments(tel, orderService)}
}

func (uc *ListUserOrdersUseCase) Execute(ctx context.Context, in ListUserOrdersInput) (_ *domain.UserOrders, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseOrderList),
		observability.F("user_id", in.UserID),
	)
	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"ListUserOrders",
		attribute.String("order.user_id", in.UserID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	defer func() {
		uc.inst.Done(ctx, span, useCaseOrderList, start, outcome, statusText, err, logger)
	}()

	if strings.TrimSpace(in.UserID) == "" {
		outcome, statusText = "error", "USER_ID_REQUIRED"
		return nil, application.Validationf(useCaseOrderList, "user id is required")
	}

	ctx, cancel := withOptionalTimeout(ctx, uc.timeout)
	defer cancel()

	res, err := uc.repo.ListByUser(ctx, in.UserID, domain.Page{Number: in.Page, Limit: in.Limit}.Normalize())
	if err != nil {
		outcome, statusText = "error", "REPO_LIST_FAILED"
		return nil, wrapRepositoryError(useCaseOrderList, err)
	}
	span.SetAttributes(attribute.Int64("order.total_docs", res.TotalDocs))
	return res, nil
}

type UpdateStatusInput struct {
	OrderID string
	Status  string
}

// UpdateOrderStatusUseCase is the administrative status change. It never touches the invoice.
type UpdateOrderStatusUseCase struct {
	repo    domain.Repository
	timeout time.Duration
	inst    application.Instruments
}

func NewUpdateOrderStatusUseCase(repo domain.Repository, timeout time.Duration, tel observability.Observability) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{repo: repo, timeout: timeout, inst: application.NewInstruments(tel, orderService)}
}

func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, in UpdateStatusInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseOrderStatus),
		observability.F("order_id", in.OrderID),
	)
	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"UpdateOrderStatus",
		attribute.String("order.id", in.OrderID),
		attribute.String("order.target_status", in.Status),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	defer func() {
		uc.inst.Done(ctx, span, useCaseOrderStatus, start, outcome, statusText, err, logger)
	}()

	if strings.TrimSpace(in.OrderID) == "" {
		outcome, statusText = "error", "ID_REQUIRED"
		return nil, application.Validationf(useCaseOrderStatus, "order id is required")
	}
	status, perr := domain.ParseStatus(in.Status)
	if perr != nil {
		outcome, statusText = "error", "STATUS_INVALID"
		return nil, application.Validation(useCaseOrderStatus, perr)
	}

	ctx, cancel := withOptionalTimeout(ctx, uc.timeout)
	defer cancel()

	o, err := uc.repo.UpdateStatus(ctx, in.OrderID, status)
	if err != nil {
		outcome, statusText = "error", "REPO_UPDATE_FAILED"
		return nil, wrapRepositoryError(useCaseOrderStatus, err)
	}
	return o, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func wrapRepositoryError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return application.NotFound(op, err)
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateInvoice),
		errors.Is(err, domain.ErrInvalidStateTransition):
		return application.Conflict(op, err)
	case errors.Is(err, domain.ErrInvalidOrder):
		return application.Validation(op, err)
	default:
		return application.Persistence(op, err)
	}
}
