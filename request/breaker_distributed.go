package request

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	gbredis "github.com/sony/gobreaker/v2/redis"
)

// DistributedBreakerConfig configures a DistributedCircuitBreaker. Unlike
// CircuitBreaker's bucketed window, the distributed breaker delegates
// accounting to sony/gobreaker/v2's interval-reset Counts model, shared
// across instances via Redis, trading the spec's exact bucket semantics for
// a consistent view of breaker state across a fleet.
type DistributedBreakerConfig struct {
	// RedisClient is the shared store backing breaker state across
	// instances.
	RedisClient redis.UniversalClient

	// MaxRequests bounds how many outcomes gobreaker records while HalfOpen.
	// Allow does not apply it: every request is admitted while HalfOpen.
	MaxRequests uint32

	// Interval is how often the Closed-state counts are reset to zero. A
	// zero Interval never resets counts while Closed.
	Interval time.Duration

	// Timeout is how long the breaker stays Open before moving to
	// HalfOpen, equivalent to BreakDuration.
	Timeout time.Duration

	// FailureThreshold is the failure ratio, in (0,1], at or above which
	// the breaker trips, evaluated once MinimumThroughput requests have
	// been observed in the current interval.
	FailureThreshold float64

	// MinimumThroughput is the minimum number of requests observed before
	// FailureThreshold is evaluated.
	MinimumThroughput uint32

	// KeyFunc derives the circuit key. Default: DefaultBreakerKey.
	KeyFunc BreakerKeyFunc

	// Classifier decides Accept/Reject for breaker accounting. Default:
	// DefaultClassifier.
	Classifier ResponseClassifier

	// OnStateChange is called after every transition.
	OnStateChange func(key string, from, to BreakerState)
}

// DistributedBreakerConfig with defaults filled in.
func (c DistributedBreakerConfig) withDefaults() DistributedBreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 0.5
	}
	if c.MinimumThroughput == 0 {
		c.MinimumThroughput = 10
	}
	if c.KeyFunc == nil {
		c.KeyFunc = DefaultBreakerKey
	}
	if c.Classifier == nil {
		c.Classifier = DefaultClassifier
	}
	return c
}

// DistributedCircuitBreaker implements Breaker on top of
// sony/gobreaker/v2, sharing trip state across instances through Redis via
// sony/gobreaker/v2/redis. It is the pluggable alternative to
// CircuitBreaker for multi-instance deployments that need a consistent
// breaker view; single-instance callers should prefer CircuitBreaker, which
// implements the window semantics exactly.
type DistributedCircuitBreaker struct {
	cfg DistributedBreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.DistributedCircuitBreaker[*Response]

	listenersMu sync.Mutex
	listeners   []func(key string, from, to BreakerState)
}

// NewDistributedCircuitBreaker returns a DistributedCircuitBreaker backed
// by cfg.RedisClient. A per-key gobreaker.DistributedCircuitBreaker is
// created lazily on first use of that key.
func NewDistributedCircuitBreaker(cfg DistributedBreakerConfig) *DistributedCircuitBreaker {
	return &DistributedCircuitBreaker{
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*gobreaker.DistributedCircuitBreaker[*Response]),
	}
}

// OnStateChange implements StateChangeNotifier, registering an additional
// listener invoked after every transition, alongside cfg.OnStateChange.
func (d *DistributedCircuitBreaker) OnStateChange(fn func(key string, from, to BreakerState)) {
	d.listenersMu.Lock()
	defer d.listenersMu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *DistributedCircuitBreaker) notifyListeners(key string, from, to BreakerState) {
	d.listenersMu.Lock()
	listeners := append([]func(string, BreakerState, BreakerState){}, d.listeners...)
	d.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(key, from, to)
	}
}

func (d *DistributedCircuitBreaker) breakerFor(key string) (*gobreaker.DistributedCircuitBreaker[*Response], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if b, ok := d.breakers[key]; ok {
		return b, nil
	}

	threshold := d.cfg.FailureThreshold
	minThroughput := d.cfg.MinimumThroughput
	settings := gobreaker.Settings{
		Name:        key,
		MaxRequests: d.cfg.MaxRequests,
		Interval:    d.cfg.Interval,
		Timeout:     d.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minThroughput {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			bFrom, bTo := fromGobreakerState(from), fromGobreakerState(to)
			if d.cfg.OnStateChange != nil {
				d.cfg.OnStateChange(name, bFrom, bTo)
			}
			d.notifyListeners(name, bFrom, bTo)
		},
	}

	b, err := gbredis.NewDistributedCircuitBreaker[*Response](context.Background(), d.cfg.RedisClient, settings)
	if err != nil {
		return nil, err
	}
	d.breakers[key] = b
	return b, nil
}

// Allow reports whether a request may proceed. On any error obtaining or
// consulting the shared breaker (e.g. Redis unreachable), it fails open:
// the request is allowed through rather than blocked on an infrastructure
// outage unrelated to the downstream service's health.
func (d *DistributedCircuitBreaker) Allow(req *Request) bool {
	key := d.cfg.KeyFunc(req)
	b, err := d.breakerFor(key)
	if err != nil {
		return true
	}
	return b.State() != gobreaker.StateOpen
}

// Report records the outcome of a call by running it through gobreaker's
// Execute, so that its accounting lines up with the package's Accept/Reject
// classification: a Reject verdict is reported to gobreaker as an error,
// an Accept verdict as success, regardless of what the Transport actually
// returned.
func (d *DistributedCircuitBreaker) Report(req *Request, resp *Response, err error) {
	key := d.cfg.KeyFunc(req)
	b, bErr := d.breakerFor(key)
	if bErr != nil {
		return
	}

	verdict := d.cfg.Classifier.Classify(resp, err)
	_, _ = b.Execute(func() (*Response, error) {
		if verdict == Reject {
			return nil, ErrTransport
		}
		return resp, nil
	})
}

// State returns the current breaker state for req's key. Unavailable
// shared-store state reports Closed, consistent with Allow's fail-open
// policy.
func (d *DistributedCircuitBreaker) State(req *Request) BreakerState {
	key := d.cfg.KeyFunc(req)
	b, err := d.breakerFor(key)
	if err != nil {
		return Closed
	}
	return fromGobreakerState(b.State())
}

func fromGobreakerState(s gobreaker.State) BreakerState {
	switch s {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}
