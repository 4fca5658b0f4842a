package notification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

const (
	notificationService     = "notification-service"
	useCaseSendConfirmation = "notification.send_order_confirmation"
	notifierPeer            = "notifier"
)

var ErrMissingRecipient = errors.New("notification: order has no usable customer email")

type SendConfirmationInput struct {
	Order *order.Order
}

type SendConfirmationResult struct {
	Recipient string
}

// SendOrderConfirmationUseCase hands a placed order to the notifier with the
// merchant details attached. It runs off the request path.
type SendOrderConfirmationUseCase struct {
	notifier domain.Notifier
	merchant domain.Merchant
	timeout  time.Duration
	inst     application.Instruments
}

func NewSendOrderConfirmationUseCase(
	notifier domain.Notifier,
	merchant domain.Merchant,
	timeout time.Duration,
	tel observability.Observability,
) *SendOrderConfirmationUseCase {
	return &SendOrderConfirmationUseCase{
		notifier: notifier,
		merchant: merchant,
		timeout:  timeout,
		inst:     application.NewInstruments(tel, notificationService),
	}
}

func (uc *SendOrderConfirmationUseCase) Execute(ctx context.Context, in SendConfirmationInput) (_ *SendConfirmationResult, err error) {
	logger := logctx.FromOr(ctx, uc.inst.Log).With(observability.F("use_case", useCaseSendConfirmation))
	if in.Order != nil {
		logger = logger.With(
			observability.F("order_id", in.Order.ID),
			observability.F("invoice", in.Order.Invoice),
		)
	}

	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"SendOrderConfirmation",
		attribute.String("use_case", useCaseSendConfirmation),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		uc.inst.Done(ctx, span, useCaseSendConfirmation, start, outcome, statusText, err, logger)
	}()

	if in.Order == nil {
		outcome, statusText = "error", "ORDER_REQUIRED"
		return nil, application.Validationf(useCaseSendConfirmation, "order is required")
	}
	addr, perr := mail.ParseAddress(in.Order.UserInfo.Email)
	if perr != nil {
		outcome, statusText = "error", "INVALID_RECIPIENT"
		return nil, application.Validation(useCaseSendConfirmation, fmt.Errorf("%w: %v", ErrMissingRecipient, perr))
	}

	callCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	callStart := time.Now()
	nerr := uc.notifier.OrderConfirmation(callCtx, domain.Confirmation{Order: in.Order, Merchant: uc.merchant})
	uc.inst.External(notifierPeer, "order_confirmation", application.ExternalOutcome(callCtx, nerr), callStart)
	if nerr != nil {
		outcome, statusText = "error", "NOTIFIER_FAILED"
		return nil, application.Dependency(useCaseSendConfirmation, nerr)
	}
	return &SendConfirmationResult{Recipient: addr.Address}, nil
}
