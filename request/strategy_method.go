package request

import "context"

// MethodBasedStrategy dispatches to a concrete Strategy chosen by the
// request's HTTP method, e.g. hedged GETs and single-attempt writes under
// one Client.
type MethodBasedStrategy struct {
	byMethod map[string]Strategy
	fallback Strategy
}

// NewMethodBasedStrategy returns a MethodBasedStrategy whose default
// strategy (used for methods with no explicit registration) is fallback. A
// nil fallback causes Execute to fail with ErrConfiguration for any
// unregistered method.
func NewMethodBasedStrategy(fallback Strategy) *MethodBasedStrategy {
	return &MethodBasedStrategy{
		byMethod: make(map[string]Strategy),
		fallback: fallback,
	}
}

// ForMethod registers strategy for method and returns the receiver, so
// registrations can be chained.
func (m *MethodBasedStrategy) ForMethod(method string, strategy Strategy) *MethodBasedStrategy {
	m.byMethod[method] = strategy
	return m
}

// Execute implements Strategy: it looks up req.Method() and delegates to
// the registered Strategy, or the fallback if none is registered.
func (m *MethodBasedStrategy) Execute(ctx context.Context, req *Request, send SendFunc, deadline Deadline, priority Priority) (*Response, error) {
	strategy, ok := m.byMethod[req.Method()]
	if !ok {
		strategy = m.fallback
	}
	if strategy == nil {
		return nil, NewTransportError(ErrConfiguration, nil)
	}
	return strategy.Execute(ctx, req, send, deadline, priority)
}
