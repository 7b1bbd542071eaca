package request

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.NotNil(t, cfg.transport)
	assert.NotNil(t, cfg.strategy)
	assert.NotNil(t, cfg.classifier)
	assert.NotNil(t, cfg.requestEnricher)
	assert.NotNil(t, cfg.responseEnricher)
	assert.NotNil(t, cfg.metrics)
	assert.NotNil(t, cfg.debug)
	assert.NotNil(t, cfg.fallback)
	assert.Nil(t, cfg.breaker)
	assert.Nil(t, cfg.rateLimiter)
	assert.Nil(t, cfg.coalescer)
}

func TestOptionsApply(t *testing.T) {
	tr := NewMockTransport()
	strategy := NewSingleAttemptStrategy()
	breaker := NewCircuitBreaker(DefaultBreakerConfig())
	limiter := NewRateLimiter(DefaultRateLimitConfig())
	coalescer := NewCoalescer()

	cfg := defaultConfig()
	for _, opt := range []Option{
		WithBaseURL("https://orders.internal"),
		WithServiceName("orders-client"),
		WithTransport(tr),
		WithStrategy(strategy),
		WithBreaker(breaker),
		WithClassifier(AlwaysAcceptClassifier),
		WithRateLimiter(limiter),
		WithCoalescing(coalescer),
		WithDebug(true),
	} {
		opt(cfg)
	}

	assert.Equal(t, "https://orders.internal", cfg.baseURL)
	assert.Equal(t, "orders-client", cfg.serviceName)
	assert.Same(t, tr, cfg.transport)
	assert.Same(t, strategy, cfg.strategy)
	assert.Same(t, breaker, cfg.breaker)
	assert.Equal(t, AlwaysAcceptClassifier, cfg.classifier)
	assert.Same(t, limiter, cfg.rateLimiter)
	assert.Same(t, coalescer, cfg.coalescer)
	assert.True(t, cfg.debug.enabled)
}

func TestWithBreakerFallback(t *testing.T) {
	cfg := defaultConfig()
	custom := func(req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusTeapot}, nil
	}
	WithBreakerFallback(custom)(cfg)

	resp, err := cfg.fallback(NewRequest(http.MethodGet, "/x"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestWithDebugLoggerEnablesImmediately(t *testing.T) {
	cfg := defaultConfig()
	assert.False(t, cfg.debug.enabled)

	WithDebugLogger(zerolog.Nop())(cfg)
	assert.True(t, cfg.debug.enabled)
}

func TestWithOtelMeterInstallsSink(t *testing.T) {
	cfg := defaultConfig()

	provider := sdkmetric.NewMeterProvider()
	meter := provider.Meter("resilientreq-test")

	WithOtelMeter(meter)(cfg)

	assert.IsType(t, &otelMetricsSink{}, cfg.metrics)
}
