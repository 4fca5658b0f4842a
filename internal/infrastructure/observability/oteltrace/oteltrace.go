package oteltrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
)

type tracer struct{ t trace.Tracer }

// New resolves a named tracer from the global provider. Without an SDK provider
// installed spans are non-recording but still propagate context.
func New(name string) observability.Tracer {
	if name == "" {
		name = "supar-admin-backend"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
