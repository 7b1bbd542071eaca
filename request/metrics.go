package request

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsSink is the pluggable metrics collaborator described by the
// package's observability contract: the core must emit through it even
// when it is a no-op. Client emits one Outcome per attempt and one
// BreakerTransition per breaker state change.
type MetricsSink interface {
	Outcome(endpoint, method string, statusOrErrorKind string, latency time.Duration)
	BreakerTransition(key string, from, to BreakerState)
}

// NoopMetricsSink discards every observation. It is the default so a
// Client is always safe to construct without an observability backend
// configured.
type NoopMetricsSink struct{}

// Outcome implements MetricsSink.
func (NoopMetricsSink) Outcome(string, string, string, time.Duration) {}

// BreakerTransition implements MetricsSink.
func (NoopMetricsSink) BreakerTransition(string, BreakerState, BreakerState) {}

// otelMetricsSink is the default non-noop MetricsSink, backed by
// OpenTelemetry metric instruments. Safely inert (every method becomes a
// no-op) when constructed with a meter from a provider that was never
// configured with a real exporter.
type otelMetricsSink struct {
	requestDuration   metric.Float64Histogram
	requestErrors     metric.Int64Counter
	breakerTransition metric.Int64Counter
}

// NewOtelMetricsSink builds a MetricsSink backed by meter.
func NewOtelMetricsSink(meter metric.Meter) (MetricsSink, error) {
	requestDuration, err := meter.Float64Histogram(
		"resilientreq.request.duration",
		metric.WithDescription("Duration of a single transport attempt, in seconds."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	requestErrors, err := meter.Int64Counter(
		"resilientreq.request.errors",
		metric.WithDescription("Count of attempts classified Reject, by status or error kind."),
	)
	if err != nil {
		return nil, err
	}
	breakerTransition, err := meter.Int64Counter(
		"resilientreq.breaker.transitions",
		metric.WithDescription("Count of circuit breaker state transitions."),
	)
	if err != nil {
		return nil, err
	}
	return &otelMetricsSink{
		requestDuration:   requestDuration,
		requestErrors:     requestErrors,
		breakerTransition: breakerTransition,
	}, nil
}

// Outcome implements MetricsSink.
func (s *otelMetricsSink) Outcome(endpoint, method, statusOrErrorKind string, latency time.Duration) {
	attrs := attribute.NewSet(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
		attribute.String("outcome", statusOrErrorKind),
	)
	s.requestDuration.Record(context.Background(), latency.Seconds(), metric.WithAttributeSet(attrs))
	if isRejectOutcome(statusOrErrorKind) {
		s.requestErrors.Add(context.Background(), 1, metric.WithAttributeSet(attrs))
	}
}

// BreakerTransition implements MetricsSink.
func (s *otelMetricsSink) BreakerTransition(key string, from, to BreakerState) {
	s.breakerTransition.Add(context.Background(), 1, metric.WithAttributeSet(attribute.NewSet(
		attribute.String("key", key),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)))
}

func isRejectOutcome(statusOrErrorKind string) bool {
	switch statusOrErrorKind {
	case "timeout", "connect_error", "transport_error", "429", "500", "502", "503", "504":
		return true
	default:
		return len(statusOrErrorKind) == 3 && statusOrErrorKind[0] == '5'
	}
}
