package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
)

// SpanPrefix is prepended to every use case span name.
const SpanPrefix = "UC."

// Instruments holds the logger, tracer and RED instruments a use case records into.
// Metric handles are resolved once at construction.
type Instruments struct {
	Log     observability.Logger
	Tracer  observability.Tracer
	Metrics observability.Metrics

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return Instruments{
		Log:          tel.Logger().With(observability.F("service", service)),
		Tracer:       tel.Tracer(),
		Metrics:      m,
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Done ends the span, records the RED metrics and writes the single use_case_done line.
func (in Instruments) Done(
	ctx context.Context,
	span trace.Span,
	useCase string,
	start time.Time,
	outcome, statusText string,
	err error,
	logger observability.Logger,
	extra ...observability.Field,
) {
	lat := time.Since(start).Seconds()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()
	}

	in.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	in.durHistogram.Observe(lat, observability.L("use_case", useCase))

	fields := append([]observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", lat),
	}, extra...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields,
			observability.F("error", err.Error()),
			observability.F("error_kind", KindOf(err).String()),
		)
	}

	logger.Info("use_case_done", fields...)
}

// External records one call to a collaborator outside the process.
func (in Instruments) External(peer, endpoint, outcome string, start time.Time) {
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// ExternalOutcome maps a collaborator error onto the outcome label.
func ExternalOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case ctx.Err() != nil:
		return "canceled"
	default:
		return "error"
	}
}
