package request

import (
	"strconv"

	"github.com/google/uuid"
)

// RequestEnricher transforms a Request before it is handed to Transport,
// typically to add propagation headers. Enrichers run once per attempt, on
// the per-attempt deadline, not once per logical call, so that headers
// like X-Request-Deadline-At always reflect the remaining budget at send
// time rather than the original deadline.
type RequestEnricher interface {
	EnrichRequest(req *Request, deadline Deadline, priority Priority) *Request
}

// RequestEnricherFunc adapts a plain function to RequestEnricher.
type RequestEnricherFunc func(req *Request, deadline Deadline, priority Priority) *Request

// EnrichRequest calls f.
func (f RequestEnricherFunc) EnrichRequest(req *Request, deadline Deadline, priority Priority) *Request {
	return f(req, deadline, priority)
}

// ResponseEnricher transforms a Response after it returns from Transport,
// before classification. Used for observability concerns such as stamping
// a trace id, not for altering the caller-visible payload.
type ResponseEnricher interface {
	EnrichResponse(resp *Response) *Response
}

// ResponseEnricherFunc adapts a plain function to ResponseEnricher.
type ResponseEnricherFunc func(resp *Response) *Response

// EnrichResponse calls f.
func (f ResponseEnricherFunc) EnrichResponse(resp *Response) *Response {
	return f(resp)
}

// HeaderDeadlineAt is the wire header carrying the remaining deadline
// budget, in fractional seconds, at the moment a request is sent.
const HeaderDeadlineAt = "X-Request-Deadline-At"

// HeaderPriority is the wire header carrying the request's Priority.
const HeaderPriority = "X-Request-Priority"

// HeaderRequestID is the wire header carrying a per-call correlation id.
const HeaderRequestID = "X-Request-Id"

// DeadlineHeaderEnricher sets HeaderDeadlineAt to deadline.RemainingSeconds()
// on every attempt, so downstream services (via the matching server-side
// middleware) can construct their own Deadline on arrival.
var DeadlineHeaderEnricher RequestEnricher = RequestEnricherFunc(func(req *Request, deadline Deadline, _ Priority) *Request {
	return req.ExtendHeaders(Header{}.Set(HeaderDeadlineAt, strconv.FormatFloat(deadline.RemainingSeconds(), 'f', -1, 64)))
})

// PriorityHeaderEnricher sets HeaderPriority to priority's wire form.
var PriorityHeaderEnricher RequestEnricher = RequestEnricherFunc(func(req *Request, _ Deadline, priority Priority) *Request {
	return req.ExtendHeaders(Header{}.Set(HeaderPriority, priority.String()))
})

// RequestIDEnricher sets HeaderRequestID to a freshly generated UUID if one
// is not already present, so every attempt (including retries) that lacks
// caller-supplied correlation still gets one.
var RequestIDEnricher RequestEnricher = RequestEnricherFunc(func(req *Request, _ Deadline, _ Priority) *Request {
	if req.Headers().Get(HeaderRequestID) != "" {
		return req
	}
	return req.ExtendHeaders(Header{}.Set(HeaderRequestID, uuid.NewString()))
})

// ChainRequestEnrichers composes enrichers, applying them in order.
func ChainRequestEnrichers(enrichers ...RequestEnricher) RequestEnricher {
	return RequestEnricherFunc(func(req *Request, deadline Deadline, priority Priority) *Request {
		for _, e := range enrichers {
			req = e.EnrichRequest(req, deadline, priority)
		}
		return req
	})
}

// ChainResponseEnrichers composes enrichers, applying them in order.
func ChainResponseEnrichers(enrichers ...ResponseEnricher) ResponseEnricher {
	return ResponseEnricherFunc(func(resp *Response) *Response {
		for _, e := range enrichers {
			resp = e.EnrichResponse(resp)
		}
		return resp
	})
}

// DefaultRequestEnrichers is the propagation enricher set every Client uses
// unless overridden: deadline, priority, and a request id.
func DefaultRequestEnrichers() RequestEnricher {
	return ChainRequestEnrichers(DeadlineHeaderEnricher, PriorityHeaderEnricher, RequestIDEnricher)
}
