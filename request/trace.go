package request

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans in an OpenTelemetry backend.
const tracerName = "github.com/kroma-labs/resilientreq/request"

// startAttemptSpan opens a span for a single transport attempt. Call End
// (via the returned func) when the attempt completes, recording its
// outcome. Safe to call with a context that has no configured
// TracerProvider: the global otel.Tracer falls back to a no-op
// implementation in that case.
func startAttemptSpan(ctx context.Context, req *Request, attempt int) (context.Context, func(resp *Response, err error)) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "request.attempt",
		trace.WithAttributes(
			attribute.String("http.method", req.Method()),
			attribute.String("http.url", req.URL()),
			attribute.Int("request.attempt", attempt),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, func(resp *Response, err error) {
		defer span.End()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		if resp != nil {
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			if resp.IsServerError() || resp.IsThrottling() {
				span.SetStatus(codes.Error, "")
			} else {
				span.SetStatus(codes.Ok, "")
			}
		}
	}
}

// startBreakerSpan opens a span around circuit breaker accounting, mostly
// useful for tying a short-circuited response back to the state transition
// that produced it in a trace view.
func startBreakerSpan(ctx context.Context, key string, state BreakerState) (context.Context, func()) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "request.breaker",
		trace.WithAttributes(
			attribute.String("breaker.key", key),
			attribute.String("breaker.state", state.String()),
		),
	)
	return ctx, span.End
}
