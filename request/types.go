package request

import "context"

// Transport executes a single Request against a deadline and returns a
// Response or an error. Implementations must honor ctx cancellation and the
// deadline's Remaining() budget: once either expires, Send must abandon the
// in-flight call and release any held resources (connections, response
// bodies) before returning.
//
// Send is called once per attempt; retry, hedging, and sequential pacing are
// the concern of a Strategy, not of Transport.
type Transport interface {
	Send(ctx context.Context, req *Request, deadline Deadline) (*Response, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, req *Request, deadline Deadline) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *Request, deadline Deadline) (*Response, error) {
	return f(ctx, req, deadline)
}
