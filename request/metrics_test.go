package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNoopMetricsSinkDoesNotPanic(t *testing.T) {
	var s NoopMetricsSink
	assert.NotPanics(t, func() {
		s.Outcome("/x", "GET", "200", 10*time.Millisecond)
		s.BreakerTransition("k", Closed, Open)
	})
}

func TestNewOtelMetricsSinkRecordsWithoutError(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	meter := provider.Meter("resilientreq-test")

	sink, err := NewOtelMetricsSink(meter)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		sink.Outcome("/orders", "GET", "200", 5*time.Millisecond)
		sink.Outcome("/orders", "GET", "503", 5*time.Millisecond)
		sink.BreakerTransition("GET /orders", Closed, Open)
	})
}

func TestIsRejectOutcome(t *testing.T) {
	assert.True(t, isRejectOutcome("timeout"))
	assert.True(t, isRejectOutcome("503"))
	assert.False(t, isRejectOutcome("200"))
	assert.False(t, isRejectOutcome("404"))
}
