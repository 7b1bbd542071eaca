package request

import (
	"io"
	"strings"
)

// Response is an immutable record of a completed HTTP exchange. Its Body,
// if non-nil, is a live resource: whoever takes final ownership of the
// Response (the caller, on the scope that received it from Client.Send) is
// responsible for closing it. Strategies guarantee that every Response they
// do not return to the caller has already been released.
type Response struct {
	StatusCode int
	Headers    Header
	Body       io.ReadCloser
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsThrottling reports a 429 status.
func (r *Response) IsThrottling() bool {
	return r.StatusCode == 429
}

// IsServerError reports a 5xx status.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// IsJSON reports whether Content-Type indicates a JSON payload.
func (r *Response) IsJSON() bool {
	ct := r.Headers.Get("Content-Type")
	return strings.Contains(ct, "application/json") || strings.HasSuffix(ct, "+json")
}

// Release closes the response body if present. Safe to call on a nil
// Response or a Response with a nil Body. Every code path in a Strategy
// (accepted, rejected, timed out, cancelled) must call Release on every
// Response it does not hand back to the caller.
func (r *Response) Release() {
	if r == nil || r.Body == nil {
		return
	}
	_ = r.Body.Close()
}
