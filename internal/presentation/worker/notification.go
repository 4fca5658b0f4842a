package workerpresentation

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	appnotif "github.com/subham007-coder/Supar-Admin-Backend/internal/application/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/outbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
)

type ConfirmationSender = application.UseCase[appnotif.SendConfirmationInput, *appnotif.SendConfirmationResult]

// RegisterOrderConfirmation sends a confirmation for every placed order.
// Failures are returned to the bus, which logs them; the order itself is
// already committed.
func RegisterOrderConfirmation(sub outbox.Subscriber, sender ConfirmationSender, tel observability.Observability) {
	tel = observability.Or(tel)
	eventName := order.PlacedEvent{}.EventName()

	sub.Subscribe(eventName, func(ctx context.Context, e outbox.Event) error {
		placed, ok := asPlaced(e)
		if !ok || placed.Order == nil {
			return fmt.Errorf("worker: unexpected payload %T for %s", e, eventName)
		}

		ctx, span := tel.Tracer().Start(ctx, "Worker."+eventName,
			attribute.String("order.id", placed.Order.ID),
			attribute.Int64("order.invoice", placed.Order.Invoice),
		)
		defer span.End()

		ctx = WithEventContext(ctx, nil, tel, trace.SpanContextFromContext(ctx), map[string]string{
			"event_id": placed.EventKey() + ":" + strconv.FormatInt(placed.OccurredAt.UnixNano(), 10),
			"event":    eventName,
			"handler":  "order_confirmation",
		})

		_, err := sender.Execute(ctx, appnotif.SendConfirmationInput{Order: placed.Order})
		if err != nil {
			span.RecordError(err)
		}
		return err
	})
}

func asPlaced(e outbox.Event) (order.PlacedEvent, bool) {
	switch v := e.(type) {
	case order.PlacedEvent:
		return v, true
	case *order.PlacedEvent:
		if v == nil {
			return order.PlacedEvent{}, false
		}
		return *v, true
	default:
		return order.PlacedEvent{}, false
	}
}
