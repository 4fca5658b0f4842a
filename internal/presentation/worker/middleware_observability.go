package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

// WithEventContext binds a logger for one background event execution.
// attrs must stay low-cardinality apart from event_id, which is generated
// when empty.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	span trace.SpanContext,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.Or(tel).Logger()
	}

	fields := make([]observability.Field, 0, len(attrs)+3)

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if span.HasTraceID() {
		fields = append(fields, observability.F("trace_id", span.TraceID().String()))
	}
	if span.HasSpanID() {
		fields = append(fields, observability.F("span_id", span.SpanID().String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}
