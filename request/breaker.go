package request

import (
	"net/http"
	"sync"
	"time"
)

// BreakerState is the externally observable state of a circuit for one key.
type BreakerState int

const (
	// Closed admits every request and accumulates outcomes into the
	// rolling window.
	Closed BreakerState = iota
	// Open short-circuits every request until its embedded deadline
	// passes.
	Open
	// HalfOpen admits exactly one probe request to decide whether to
	// return to Closed or back to Open.
	HalfOpen
)

// String renders the state for logging.
func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is the interface Client depends on, satisfied by both
// CircuitBreaker (the native, in-process rolling-window implementation)
// and DistributedCircuitBreaker (a Redis-backed, multi-instance
// alternative). Client never depends on the concrete type, so the two are
// interchangeable.
type Breaker interface {
	Allow(req *Request) bool
	Report(req *Request, resp *Response, err error)
	State(req *Request) BreakerState
}

// StateChangeNotifier is implemented by Breaker implementations that
// support attaching additional state-change listeners on top of whatever
// BreakerConfig.OnStateChange was configured with. Client uses this, when
// the configured Breaker supports it, to forward every transition into its
// own MetricsSink and DebugLogger, so callers never have to reimplement
// that wiring themselves inside OnStateChange.
type StateChangeNotifier interface {
	OnStateChange(fn func(key string, from, to BreakerState))
}

// BreakerKeyFunc derives the circuit key for a request. The default groups
// by (endpoint, method); callers with a multi-tenant or sharded backend may
// supply their own, e.g. to key per downstream cluster instead of per URL.
type BreakerKeyFunc func(req *Request) string

// DefaultBreakerKey keys by method + URL template (not the resolved path,
// so requests differing only in path parameter values share one circuit).
func DefaultBreakerKey(req *Request) string {
	return req.Method() + " " + req.URL()
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// BreakDuration is how long a circuit stays Open before allowing a
	// HalfOpen probe. Default: 30s.
	BreakDuration time.Duration

	// SamplingDuration is the width of the rolling window used to
	// accumulate outcomes. Default: 10s.
	SamplingDuration time.Duration

	// BucketCount is how many fixed-width buckets SamplingDuration is
	// divided into. Default: 10, giving 1s buckets at the default
	// SamplingDuration.
	BucketCount int

	// MinimumThroughput is the minimum number of observations in the
	// window before the breaker is allowed to open, preventing a handful
	// of early failures from opening a circuit with no real signal yet.
	// Default: 10.
	MinimumThroughput int

	// FailureThreshold is the failure ratio, in (0,1], at or above which
	// the breaker opens once MinimumThroughput is met. Default: 0.5.
	FailureThreshold float64

	// KeyFunc derives the circuit key. Default: DefaultBreakerKey.
	KeyFunc BreakerKeyFunc

	// Classifier decides Accept/Reject for breaker accounting. Default:
	// DefaultClassifier.
	Classifier ResponseClassifier

	// OnStateChange is called after every transition, with key and the
	// new state. Optional.
	OnStateChange func(key string, from, to BreakerState)
}

// DefaultBreakerConfig returns the conservative defaults described above.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		BreakDuration:     30 * time.Second,
		SamplingDuration:  10 * time.Second,
		BucketCount:       10,
		MinimumThroughput: 10,
		FailureThreshold:  0.5,
		KeyFunc:           DefaultBreakerKey,
		Classifier:        DefaultClassifier,
	}
}

// DisabledBreakerConfig returns a configuration whose breaker never opens
// (FailureThreshold > 1 is unreachable), useful as an explicit opt-out that
// still goes through the same code path as a real breaker.
func DisabledBreakerConfig() BreakerConfig {
	c := DefaultBreakerConfig()
	c.FailureThreshold = 2.0
	return c
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.BreakDuration <= 0 {
		c.BreakDuration = 30 * time.Second
	}
	if c.SamplingDuration <= 0 {
		c.SamplingDuration = 10 * time.Second
	}
	if c.BucketCount <= 0 {
		c.BucketCount = 10
	}
	if c.MinimumThroughput <= 0 {
		c.MinimumThroughput = 10
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 0.5
	}
	if c.KeyFunc == nil {
		c.KeyFunc = DefaultBreakerKey
	}
	if c.Classifier == nil {
		c.Classifier = DefaultClassifier
	}
	return c
}

// bucket holds counts for one fixed-width slice of the rolling window.
type bucket struct {
	total    int
	failures int
	// stamp is the bucket-index this bucket was last written for; a
	// bucket whose stamp has fallen out of the window is treated as
	// zeroed without needing to walk and clear every bucket eagerly.
	stamp int64
}

// circuit is the per-key state: rolling window buckets plus the state
// machine (Closed/Open/HalfOpen).
type circuit struct {
	mu         sync.Mutex
	buckets    []bucket
	state      BreakerState
	openUntil  time.Time
	halfOpenAt time.Time
}

// CircuitBreaker implements the spec's rolling-window breaker: a fixed
// number of fixed-width buckets spanning SamplingDuration, keyed per
// (endpoint, method) by default, each holding (total, failures). Stale
// buckets are pruned lazily, on the next observation that lands on them,
// rather than by a background sweep.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	circuits map[string]*circuit

	listenersMu sync.Mutex
	listeners   []func(key string, from, to BreakerState)
}

// NewCircuitBreaker returns a CircuitBreaker configured by cfg.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:      cfg.withDefaults(),
		circuits: make(map[string]*circuit),
	}
}

// OnStateChange implements StateChangeNotifier, registering an additional
// listener invoked after every transition, alongside cfg.OnStateChange.
func (b *CircuitBreaker) OnStateChange(fn func(key string, from, to BreakerState)) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Allow reports whether a request for req may proceed. If the circuit is
// Open and its break duration has not elapsed, it returns false. Crossing
// into HalfOpen (break duration elapsed) returns true and marks the probe
// as in flight; callers must follow up with Report for exactly that probe.
func (b *CircuitBreaker) Allow(req *Request) bool {
	c := b.circuitFor(req)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Closed:
		return true
	case HalfOpen:
		return false // a probe is already outstanding
	case Open:
		if time.Now().Before(c.openUntil) {
			return false
		}
		b.transition(b.cfg.KeyFunc(req), c, HalfOpen)
		return true
	default:
		return true
	}
}

// Report records the outcome of a call admitted by Allow, advancing the
// rolling window and, where applicable, the state machine.
func (b *CircuitBreaker) Report(req *Request, resp *Response, err error) {
	key := b.cfg.KeyFunc(req)
	c := b.circuitFor(req)

	verdict := b.cfg.Classifier.Classify(resp, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == HalfOpen {
		if verdict == Accept {
			b.resetWindow(c)
			b.transition(key, c, Closed)
		} else {
			b.transition(key, c, Open)
			c.openUntil = time.Now().Add(b.cfg.BreakDuration)
		}
		return
	}

	b.record(c, verdict == Reject)

	if c.state != Closed {
		return
	}
	total, failures := b.windowTotals(c)
	if total >= b.cfg.MinimumThroughput && float64(failures)/float64(total) >= b.cfg.FailureThreshold {
		b.transition(key, c, Open)
		c.openUntil = time.Now().Add(b.cfg.BreakDuration)
	}
}

// State returns the current state for req's key, for observability.
func (b *CircuitBreaker) State(req *Request) BreakerState {
	c := b.circuitFor(req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (b *CircuitBreaker) circuitFor(req *Request) *circuit {
	key := b.cfg.KeyFunc(req)
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.circuits[key]
	if !ok {
		c = &circuit{buckets: make([]bucket, b.cfg.BucketCount)}
		b.circuits[key] = c
	}
	return c
}

func (b *CircuitBreaker) bucketWidth() time.Duration {
	return b.cfg.SamplingDuration / time.Duration(b.cfg.BucketCount)
}

func (b *CircuitBreaker) bucketIndex(now time.Time) (idx int, stamp int64) {
	width := b.bucketWidth()
	stamp = now.UnixNano() / int64(width)
	idx = int(stamp % int64(b.cfg.BucketCount))
	if idx < 0 {
		idx += b.cfg.BucketCount
	}
	return idx, stamp
}

// record adds one observation into the current bucket, zeroing it first if
// it has aged out of the window since it was last written.
func (b *CircuitBreaker) record(c *circuit, failed bool) {
	idx, stamp := b.bucketIndex(time.Now())
	bk := &c.buckets[idx]
	if bk.stamp != stamp {
		bk.total = 0
		bk.failures = 0
		bk.stamp = stamp
	}
	bk.total++
	if failed {
		bk.failures++
	}
}

// windowTotals sums every bucket whose stamp still falls within the
// sampling window, treating stale buckets as zero without mutating them.
func (b *CircuitBreaker) windowTotals(c *circuit) (total, failures int) {
	_, nowStamp := b.bucketIndex(time.Now())
	for i := range c.buckets {
		bk := &c.buckets[i]
		if nowStamp-bk.stamp >= int64(b.cfg.BucketCount) {
			continue // aged out of the window
		}
		total += bk.total
		failures += bk.failures
	}
	return total, failures
}

func (b *CircuitBreaker) resetWindow(c *circuit) {
	for i := range c.buckets {
		c.buckets[i] = bucket{}
	}
}

func (b *CircuitBreaker) transition(key string, c *circuit, to BreakerState) {
	from := c.state
	c.state = to
	if from == to {
		return
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(key, from, to)
	}
	b.listenersMu.Lock()
	listeners := append([]func(string, BreakerState, BreakerState){}, b.listeners...)
	b.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(key, from, to)
	}
}

// FallbackFunc builds the synthetic Response/Error returned when a circuit
// is Open. The default is a bare 503 with no body.
type FallbackFunc func(req *Request) (*Response, error)

// DefaultFallback returns a 503 Service Unavailable with no body.
func DefaultFallback(*Request) (*Response, error) {
	return &Response{StatusCode: http.StatusServiceUnavailable, Headers: Header{}}, nil
}
