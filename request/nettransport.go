package request

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NetTransport is the default Transport, backed by net/http. It applies the
// Request's path parameters and query parameters to build the outgoing URL,
// honors the Deadline via context.WithDeadline, and classifies failures
// into ErrTimeout, ErrConnect, or ErrTransport.
type NetTransport struct {
	client *http.Client
}

// NewNetTransport returns a NetTransport backed by client. A nil client
// uses http.DefaultClient's Transport with no client-level timeout — the
// Deadline passed to Send is the only timeout in force, which keeps a
// single source of truth for how long an attempt may run.
func NewNetTransport(client *http.Client) *NetTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &NetTransport{client: client}
}

// Send implements Transport.
func (t *NetTransport) Send(ctx context.Context, req *Request, deadline Deadline) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline.Remaining())
	defer cancel()

	u, err := buildURL(req)
	if err != nil {
		return nil, NewTransportError(ErrTransport, err)
	}

	var bodyReader io.ReadCloser
	if b := req.Body(); b != nil {
		bodyReader, err = b.Reader()
		if err != nil {
			return nil, NewTransportError(ErrTransport, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), u, bodyReader)
	if err != nil {
		return nil, NewTransportError(ErrTransport, err)
	}
	httpReq.Header = req.Headers().asHTTPHeader()
	if b := req.Body(); b != nil {
		if cl := b.ContentLength(); cl >= 0 {
			httpReq.ContentLength = cl
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyNetError(ctx, err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    Header(httpResp.Header),
		Body:       httpResp.Body,
	}, nil
}

// buildURL substitutes path parameters and appends query parameters,
// preserving caller-supplied ordering for the latter. Path parameter values
// are substituted verbatim, matching the package's documented policy of
// never URL-encoding them on the caller's behalf.
func buildURL(req *Request) (string, error) {
	raw := req.URL()
	for name, value := range req.PathParameters() {
		raw = strings.ReplaceAll(raw, "{"+name+"}", value)
	}

	if len(req.QueryParams()) == 0 {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	// url.Values.Encode() sorts keys alphabetically, which would silently
	// reorder the caller-supplied QueryParams() order (see its doc comment).
	// Build the query string by hand instead, appending in order after
	// whatever static query string the URL already carried.
	var q strings.Builder
	q.WriteString(u.RawQuery)
	for _, p := range req.QueryParams() {
		if q.Len() > 0 {
			q.WriteByte('&')
		}
		q.WriteString(url.QueryEscape(p.Name))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(p.Value))
	}
	u.RawQuery = q.String()
	return u.String(), nil
}

// classifyNetError maps a net/http client error into the package's
// transport error taxonomy.
func classifyNetError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTransportError(ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTransportError(ErrTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewTransportError(ErrConnect, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewTransportError(ErrConnect, err)
	}
	return NewTransportError(ErrTransport, err)
}
