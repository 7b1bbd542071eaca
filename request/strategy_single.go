package request

import "context"

// SingleAttemptStrategy issues exactly one attempt and returns its result
// verbatim, retrying nothing. It is the default fallback for
// MethodBasedStrategy and the natural choice for non-idempotent methods.
type SingleAttemptStrategy struct{}

// NewSingleAttemptStrategy returns a SingleAttemptStrategy.
func NewSingleAttemptStrategy() *SingleAttemptStrategy {
	return &SingleAttemptStrategy{}
}

// Execute implements Strategy.
func (s *SingleAttemptStrategy) Execute(ctx context.Context, _ *Request, send SendFunc, deadline Deadline, _ Priority) (*Response, error) {
	resp, _, err := send(ctx, deadline)
	return resp, err
}
