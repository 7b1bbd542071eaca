package request

import (
	"context"
	"math/rand/v2"
	"time"
)

// ChaosConfig configures synthetic failure injection for exercising a
// strategy or circuit breaker under controlled adverse conditions, without
// needing a genuinely flaky downstream.
type ChaosConfig struct {
	// LatencyMs is the base latency added to every attempt.
	LatencyMs int

	// LatencyJitterMs is the exclusive upper bound of the additional random
	// latency, uniformly distributed, added on top of LatencyMs.
	LatencyJitterMs int

	// ErrorRate is the probability, in [0,1], that an attempt fails with a
	// synthetic transport error instead of reaching the wrapped
	// Transport.
	ErrorRate float64

	// TimeoutRate is the probability, in [0,1], that an attempt instead
	// blocks until its Deadline expires.
	TimeoutRate float64
}

// Delay returns the latency to inject for one attempt.
func (c ChaosConfig) Delay() time.Duration {
	d := c.LatencyMs
	if c.LatencyJitterMs > 0 {
		d += rand.IntN(c.LatencyJitterMs)
	}
	return time.Duration(d) * time.Millisecond
}

// ShouldInjectError reports whether this attempt should fail synthetically.
func (c ChaosConfig) ShouldInjectError() bool {
	return c.ErrorRate > 0 && rand.Float64() < c.ErrorRate
}

// ShouldInjectTimeout reports whether this attempt should hang until its
// deadline expires.
func (c ChaosConfig) ShouldInjectTimeout() bool {
	return c.TimeoutRate > 0 && rand.Float64() < c.TimeoutRate
}

// ChaosTransport wraps a Transport, injecting latency and synthetic
// failures per ChaosConfig before (or instead of) delegating to it. Intended
// for tests exercising a CircuitBreaker or Strategy under failure, never
// for production use.
type ChaosTransport struct {
	next Transport
	cfg  ChaosConfig
}

// NewChaosTransport wraps next with chaos injection governed by cfg.
func NewChaosTransport(next Transport, cfg ChaosConfig) *ChaosTransport {
	return &ChaosTransport{next: next, cfg: cfg}
}

// Send implements Transport.
func (t *ChaosTransport) Send(ctx context.Context, req *Request, deadline Deadline) (*Response, error) {
	if d := t.cfg.Delay(); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, NewTransportError(ErrTimeout, ctx.Err())
		}
	}

	if t.cfg.ShouldInjectTimeout() {
		select {
		case <-time.After(deadline.Remaining()):
		case <-ctx.Done():
		}
		return nil, NewTransportError(ErrTimeout, nil)
	}

	if t.cfg.ShouldInjectError() {
		return nil, NewTransportError(ErrConnect, errChaosInjected)
	}

	return t.next.Send(ctx, req, deadline)
}

var errChaosInjected = chaosInjectedError{}

type chaosInjectedError struct{}

func (chaosInjectedError) Error() string { return "chaos: synthetic failure injected" }
