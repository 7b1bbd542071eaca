package request

import "errors"

// Error kinds returned by Transport implementations and the client pipeline.
// Callers distinguish them with errors.Is.
var (
	// ErrTimeout indicates the deadline expired before an attempt completed.
	ErrTimeout = errors.New("request: deadline expired")

	// ErrConnect indicates a TCP/DNS-level failure prior to the HTTP exchange.
	// It is always retryable.
	ErrConnect = errors.New("request: connect error")

	// ErrTransport indicates any other network or protocol error returned by
	// the transport.
	ErrTransport = errors.New("request: transport error")

	// ErrCircuitOpen names the circuit breaker short-circuiting a call
	// without invoking the transport. Client does not return it: an open
	// breaker yields the FallbackFunc's result instead (DefaultFallback's
	// bare 503 unless WithBreakerFallback installs another).
	ErrCircuitOpen = errors.New("request: circuit open")

	// ErrConfiguration indicates a fatal, caller-fixable setup error such as
	// a MethodBasedStrategy with no strategy registered for the request's
	// method and no default.
	ErrConfiguration = errors.New("request: configuration error")

	// ErrRateLimited is returned when a client-level rate limiter rejects a
	// request outright instead of waiting for a token.
	ErrRateLimited = errors.New("request: rate limited")
)

// TransportError wraps a lower-level error with the ErrKind it was
// classified as, preserving the original error for errors.Unwrap.
type TransportError struct {
	Kind error
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewTransportError wraps err as the given error kind (ErrTimeout, ErrConnect,
// or ErrTransport). A nil err is preserved as the kind alone.
func NewTransportError(kind, err error) *TransportError {
	return &TransportError{Kind: kind, Err: err}
}
