package request

import (
	"context"
	"io"
	"regexp"
	"sync"
)

// MockTransport is a Transport test double: register stubs by exact path,
// by regular expression, or by an arbitrary matcher function, and it
// answers Send from whichever stub matches first. Every call is recorded
// for later inspection via Requests.
type MockTransport struct {
	mu          sync.Mutex
	stubs       []mockStub
	defaultResp func() *Response
	defaultErr  error
	requests    []*Request
	requestHook func(*Request)
}

type mockStub struct {
	match func(*Request) bool
	resp  func() *Response
	err   error
}

// NewMockTransport returns an empty MockTransport. With no stubs registered
// and no default set, Send returns ErrConfiguration so that an unstubbed
// call fails loudly instead of silently succeeding.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send implements Transport.
func (m *MockTransport) Send(_ context.Context, req *Request, _ Deadline) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.requestHook
	stubs := append([]mockStub{}, m.stubs...)
	defaultResp := m.defaultResp
	defaultErr := m.defaultErr
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	for _, s := range stubs {
		if s.match(req) {
			if s.err != nil {
				return nil, s.err
			}
			return s.resp(), nil
		}
	}
	if defaultErr != nil {
		return nil, defaultErr
	}
	if defaultResp != nil {
		return defaultResp(), nil
	}
	return nil, NewTransportError(ErrConfiguration, nil)
}

// StubResponse registers a stub matching requests by exact method+path,
// always returning status/body for matches.
func (m *MockTransport) StubResponse(method, path string, status int, body []byte) {
	m.StubFunc(func(r *Request) bool {
		return r.Method() == method && r.URL() == path
	}, func() *Response {
		return &Response{StatusCode: status, Headers: Header{}, Body: newMockBody(body)}
	})
}

// StubError registers a stub matching requests by exact method+path,
// always returning err for matches.
func (m *MockTransport) StubError(method, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		match: func(r *Request) bool { return r.Method() == method && r.URL() == path },
		err:   err,
	})
}

// StubPath registers a stub matching requests whose URL matches pattern
// (a regexp), for any method.
func (m *MockTransport) StubPath(pattern string, status int, body []byte) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	m.StubFunc(func(r *Request) bool {
		return re.MatchString(r.URL())
	}, func() *Response {
		return &Response{StatusCode: status, Headers: Header{}, Body: newMockBody(body)}
	})
	return nil
}

// StubFunc registers a stub with an arbitrary matcher and response
// generator, for cases StubResponse/StubPath/StubError can't express.
func (m *MockTransport) StubFunc(match func(*Request) bool, resp func() *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{match: match, resp: resp})
}

// SetDefaultResponse sets the response returned when no stub matches.
func (m *MockTransport) SetDefaultResponse(status int, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = func() *Response {
		return &Response{StatusCode: status, Headers: Header{}, Body: newMockBody(body)}
	}
}

// SetDefaultError sets the error returned when no stub matches.
func (m *MockTransport) SetDefaultError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
}

// OnRequest registers a hook invoked synchronously for every Send call,
// before stub matching. Useful for asserting on headers set by enrichers.
func (m *MockTransport) OnRequest(hook func(*Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = hook
}

// Requests returns every Request observed so far, in call order.
func (m *MockTransport) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Request{}, m.requests...)
}

// Reset clears recorded requests but keeps registered stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func newMockBody(b []byte) *mockBody {
	return &mockBody{data: b}
}

// mockBody is an io.ReadCloser over a fixed byte slice, used for stubbed
// response bodies.
type mockBody struct {
	data []byte
	pos  int
}

func (b *mockBody) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *mockBody) Close() error {
	return nil
}
