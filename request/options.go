package request

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/metric"
)

// config holds every setting an Option can adjust. It is unexported;
// callers only ever see Option values and the constructors that produce
// them, following the package's functional-options convention.
type config struct {
	baseURL     string
	serviceName string

	transport  Transport
	strategy   Strategy
	breaker    Breaker
	classifier ResponseClassifier

	requestEnricher  RequestEnricher
	responseEnricher ResponseEnricher

	rateLimiter *RateLimiter
	coalescer   *Coalescer

	metrics MetricsSink
	debug   *DebugLogger

	fallback FallbackFunc
}

// defaultConfig returns a config with every field set to its package
// default: a net/http-backed NetTransport, a single-attempt Strategy, no
// breaker, the default classifier and enrichers, and a no-op metrics sink.
func defaultConfig() *config {
	return &config{
		transport:        NewNetTransport(nil),
		strategy:         NewSingleAttemptStrategy(),
		classifier:       DefaultClassifier,
		requestEnricher:  DefaultRequestEnrichers(),
		responseEnricher: ResponseEnricherFunc(func(r *Response) *Response { return r }),
		metrics:          NoopMetricsSink{},
		debug:            NewDebugLogger(log.Logger, false),
		fallback:         DefaultFallback,
	}
}

// Option configures a Client at construction time.
type Option func(*config)

// WithBaseURL sets the base URL prepended to every request whose URL is
// not already absolute. Optional; requests may also carry a full URL.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithServiceName stores a human-readable name for this Client. The name
// is not attached to the spans or metrics the Client emits.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithTransport overrides the default NetTransport.
func WithTransport(t Transport) Option {
	return func(c *config) { c.transport = t }
}

// WithStrategy overrides the default SingleAttemptStrategy.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithBreaker installs a Breaker (CircuitBreaker or
// DistributedCircuitBreaker). Without one, Client never short-circuits.
func WithBreaker(b Breaker) Option {
	return func(c *config) { c.breaker = b }
}

// WithBreakerFallback overrides the response synthesized when the breaker
// is Open. Default: DefaultFallback (bare 503).
func WithBreakerFallback(f FallbackFunc) Option {
	return func(c *config) { c.fallback = f }
}

// WithClassifier overrides the default Accept/Reject policy.
func WithClassifier(cl ResponseClassifier) Option {
	return func(c *config) { c.classifier = cl }
}

// WithRequestEnricher overrides the default enricher chain
// (deadline+priority+request-id headers).
func WithRequestEnricher(e RequestEnricher) Option {
	return func(c *config) { c.requestEnricher = e }
}

// WithResponseEnricher installs a ResponseEnricher, applied to every
// attempt's Response before classification.
func WithResponseEnricher(e ResponseEnricher) Option {
	return func(c *config) { c.responseEnricher = e }
}

// WithRateLimiter installs a client-side RateLimiter gating every request
// before it reaches the breaker.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *config) { c.rateLimiter = r }
}

// WithCoalescing installs a Coalescer deduplicating concurrent idempotent
// requests.
func WithCoalescing(co *Coalescer) Option {
	return func(c *config) { c.coalescer = co }
}

// WithMetrics installs a MetricsSink. Default: NoopMetricsSink.
func WithMetrics(m MetricsSink) Option {
	return func(c *config) { c.metrics = m }
}

// WithOtelMeter is a convenience wrapper around WithMetrics for the common
// case of wiring an OpenTelemetry meter directly.
func WithOtelMeter(meter metric.Meter) Option {
	return func(c *config) {
		sink, err := NewOtelMetricsSink(meter)
		if err != nil {
			return
		}
		c.metrics = sink
	}
}

// WithDebug enables or disables attempt-level zerolog logging using a
// default logger writing to the process's configured zerolog writer.
func WithDebug(enabled bool) Option {
	return func(c *config) { c.debug.SetEnabled(enabled) }
}

// WithDebugLogger installs a custom zerolog.Logger for debug output,
// enabled immediately.
func WithDebugLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.debug = NewDebugLogger(logger, true) }
}
