package request

import (
	"bytes"
	"io"
	"net/http"
	"net/textproto"
)

// Header is a case-insensitive multimap, the representation used by Request
// and Response. Canonicalization follows textproto.CanonicalMIMEHeaderKey,
// the same rule net/http applies, so values set here round-trip cleanly
// through a net/http.Header.
type Header map[string][]string

// Set replaces all values for key with a single value, returning a new
// Header. The receiver is never mutated.
func (h Header) Set(key, value string) Header {
	out := h.clone()
	out[textproto.CanonicalMIMEHeaderKey(key)] = []string{value}
	return out
}

// Add appends value to key's existing values, returning a new Header.
func (h Header) Add(key, value string) Header {
	out := h.clone()
	k := textproto.CanonicalMIMEHeaderKey(key)
	out[k] = append(append([]string{}, out[k]...), value)
	return out
}

// Get returns the first value for key, or "" if absent.
func (h Header) Get(key string) string {
	vs := h[textproto.CanonicalMIMEHeaderKey(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns all values for key.
func (h Header) Values(key string) []string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

func (h Header) clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[textproto.CanonicalMIMEHeaderKey(k)] = append([]string{}, v...)
	}
	return out
}

// asHTTPHeader converts to a net/http.Header for use by a Transport.
func (h Header) asHTTPHeader() http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[k] = append([]string{}, v...)
	}
	return out
}

// Body is an opaque request payload. Absent is represented by a nil Body.
type Body interface {
	// Reader returns a fresh io.ReadCloser for the payload. Called once per
	// attempt so that retries and hedged attempts each get an independent
	// stream; implementations backed by an in-memory buffer can simply wrap
	// a new bytes.Reader each call.
	Reader() (io.ReadCloser, error)

	// ContentLength returns the payload size, or -1 if unknown.
	ContentLength() int64
}

// BytesBody is a Body backed by an in-memory byte slice, the common case
// for JSON/form payloads. Reader returns an independent reader each call so
// the same BytesBody can back multiple attempts.
type BytesBody []byte

// Reader implements Body.
func (b BytesBody) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// ContentLength implements Body.
func (b BytesBody) ContentLength() int64 {
	return int64(len(b))
}

// Request is an immutable description of a single HTTP call. The zero value
// is not meaningful; construct one with NewRequest. Every derivation method
// (UpdateHeaders, ExtendHeaders, WithBody, WithQuery, WithPathParam) returns
// a new Request rather than mutating the receiver, so a Request may be
// safely shared and replayed across attempts.
type Request struct {
	method         string
	url            string
	headers        Header
	body           Body
	pathParameters map[string]string
	queryParams    []QueryParam
}

// QueryParam is a single ordered query string pair. Order is preserved
// because some servers are sensitive to query parameter ordering (cache
// keys, signature validation).
type QueryParam struct {
	Name  string
	Value string
}

// NewRequest constructs a Request for method and url. url may contain
// "{name}" path placeholders resolved later via WithPathParam; the core
// never URL-encodes placeholder values, callers own that.
func NewRequest(method, url string) *Request {
	return &Request{
		method:         method,
		url:            url,
		headers:        Header{},
		pathParameters: map[string]string{},
	}
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns the raw URL template, including any unresolved placeholders.
func (r *Request) URL() string { return r.url }

// Headers returns the current header multimap.
func (r *Request) Headers() Header { return r.headers }

// Body returns the current body, or nil if absent.
func (r *Request) Body() Body { return r.body }

// PathParameters returns the current placeholder substitutions.
func (r *Request) PathParameters() map[string]string { return r.pathParameters }

// QueryParams returns the current ordered query parameters.
func (r *Request) QueryParams() []QueryParam { return r.queryParams }

// clone returns a shallow copy of r, safe for a derivation method to mutate
// fields on before returning.
func (r *Request) clone() *Request {
	params := make(map[string]string, len(r.pathParameters))
	for k, v := range r.pathParameters {
		params[k] = v
	}
	return &Request{
		method:         r.method,
		url:            r.url,
		headers:        r.headers,
		body:           r.body,
		pathParameters: params,
		queryParams:    append([]QueryParam{}, r.queryParams...),
	}
}

// UpdateHeaders returns a new Request with headers replaced wholesale by h.
func (r *Request) UpdateHeaders(h Header) *Request {
	c := r.clone()
	c.headers = h
	return c
}

// ExtendHeaders returns a new Request with h's entries appended to the
// existing headers (additive, not a replacement).
func (r *Request) ExtendHeaders(h Header) *Request {
	c := r.clone()
	merged := r.headers.clone()
	for k, vs := range h {
		k = textproto.CanonicalMIMEHeaderKey(k)
		merged[k] = append(append([]string{}, merged[k]...), vs...)
	}
	c.headers = merged
	return c
}

// WithBody returns a new Request carrying body in place of the existing one.
func (r *Request) WithBody(body Body) *Request {
	c := r.clone()
	c.body = body
	return c
}

// WithQuery returns a new Request with query parameters replaced by params.
func (r *Request) WithQuery(params ...QueryParam) *Request {
	c := r.clone()
	c.queryParams = append([]QueryParam{}, params...)
	return c
}

// WithPathParam returns a new Request with placeholder name bound to value.
// value is substituted verbatim; it is the caller's responsibility to
// URL-encode it beforehand if needed.
func (r *Request) WithPathParam(name, value string) *Request {
	c := r.clone()
	c.pathParameters[name] = value
	return c
}
