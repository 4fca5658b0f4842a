package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

const (
	paymentService      = "payment-service"
	useCaseEnsureIntent = "payment.ensure_intent"
	gatewayPeer         = "payment_gateway"
)

type EnsureIntentOptions struct {
	// Fallback bounds apply to every currency without its own range.
	Fallback    dompay.Bounds
	Description string
	Timeout     time.Duration
}

type EnsureIntentInput struct {
	// IntentID is the reference from a previous checkout attempt, if any.
	IntentID string
	// Amount is in the smallest currency unit.
	Amount   int64
	Currency string
}

type EnsureIntentResult struct {
	Intent  *dompay.Intent
	Created bool
}

// EnsurePaymentIntentUseCase reuses the caller's payment intent when the
// gateway still knows it and creates a fresh one otherwise.
type EnsurePaymentIntentUseCase struct {
	gateway dompay.Gateway
	opts    EnsureIntentOptions
	inst    application.Instruments
}

func NewEnsurePaymentIntentUseCase(gateway dompay.Gateway, opts EnsureIntentOptions, tel observability.Observability) *EnsurePaymentIntentUseCase {
	return &EnsurePaymentIntentUseCase{
		gateway: gateway,
		opts:    opts,
		inst:    application.NewInstruments(tel, paymentService),
	}
}

func (uc *EnsurePaymentIntentUseCase) Execute(ctx context.Context, in EnsureIntentInput) (_ *EnsureIntentResult, err error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	logger := logctx.FromOr(ctx, uc.inst.Log).With(
		observability.F("use_case", useCaseEnsureIntent),
		observability.F("currency", currency),
	)

	ctx, span := uc.inst.Tracer.Start(ctx, application.SpanPrefix+"EnsurePaymentIntent",
		attribute.String("use_case", useCaseEnsureIntent),
		attribute.String("payment.currency", currency),
		attribute.Int64("payment.amount", in.Amount),
		attribute.Bool("payment.has_intent", in.IntentID != ""),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	created := false

	defer func() {
		uc.inst.Done(ctx, span, useCaseEnsureIntent, start, outcome, statusText, err, logger,
			observability.F("amount", in.Amount),
			observability.F("intent_created", created),
		)
	}()

	if currency == "" {
		outcome, statusText = "error", "CURRENCY_REQUIRED"
		return nil, application.Validationf(useCaseEnsureIntent, "currency is required")
	}
	if berr := dompay.BoundsFor(currency, uc.opts.Fallback).Check(in.Amount, currency); berr != nil {
		outcome, statusText = "error", "AMOUNT_OUT_OF_RANGE"
		return nil, application.Validation(useCaseEnsureIntent, berr)
	}

	if in.IntentID != "" {
		existing, rerr := uc.call(ctx, "retrieve", func(ctx context.Context) (*dompay.Intent, error) {
			return uc.gateway.Retrieve(ctx, in.IntentID)
		})
		switch {
		case rerr == nil:
			updated, uerr := uc.call(ctx, "update", func(ctx context.Context) (*dompay.Intent, error) {
				return uc.gateway.UpdateAmount(ctx, existing.ID, in.Amount)
			})
			if uerr != nil {
				outcome, statusText = "error", "GATEWAY_UPDATE_FAILED"
				return nil, application.Dependency(useCaseEnsureIntent, uerr)
			}
			statusText = "INTENT_UPDATED"
			return &EnsureIntentResult{Intent: updated}, nil
		case errors.Is(rerr, dompay.ErrIntentNotFound):
			logger.Info("payment_intent_missing", observability.F("intent_id", in.IntentID))
		default:
			outcome, statusText = "error", "GATEWAY_RETRIEVE_FAILED"
			return nil, application.Dependency(useCaseEnsureIntent, rerr)
		}
	}

	intent, cerr := uc.call(ctx, "create", func(ctx context.Context) (*dompay.Intent, error) {
		return uc.gateway.Create(ctx, dompay.CreateParams{
			Amount:      in.Amount,
			Currency:    currency,
			Description: uc.opts.Description,
		})
	})
	if cerr != nil {
		outcome, statusText = "error", "GATEWAY_CREATE_FAILED"
		return nil, application.Dependency(useCaseEnsureIntent, cerr)
	}
	created = true
	statusText = "INTENT_CREATED"
	span.SetAttributes(attribute.String("payment.intent_id", intent.ID))
	return &EnsureIntentResult{Intent: intent, Created: true}, nil
}

func (uc *EnsurePaymentIntentUseCase) call(ctx context.Context, endpoint string, fn func(context.Context) (*dompay.Intent, error)) (*dompay.Intent, error) {
	if uc.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.opts.Timeout)
		defer cancel()
	}
	callStart := time.Now()
	intent, err := fn(ctx)
	outcome := application.ExternalOutcome(ctx, err)
	if errors.Is(err, dompay.ErrIntentNotFound) {
		outcome = "not_found"
	}
	uc.inst.External(gatewayPeer, endpoint, outcome, callStart)
	return intent, err
}
