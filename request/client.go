package request

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Client wires a Transport, a Strategy, an optional Breaker, the
// enrichment chain, and the observability collaborators (MetricsSink,
// tracing, debug logging) into the single per-request operation described
// by the package: Send.
type Client struct {
	cfg *config
}

// NewClient builds a Client from opts, applied over package defaults (a
// net/http transport, a single-attempt strategy, no breaker, default
// enrichers and classifier, a no-op metrics sink).
func NewClient(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Forward every breaker state transition into this Client's own
	// MetricsSink and DebugLogger, so WithDebug/WithMetrics alone are
	// enough; callers never have to reimplement this inside
	// BreakerConfig.OnStateChange themselves.
	if notifier, ok := cfg.breaker.(StateChangeNotifier); ok {
		notifier.OnStateChange(func(key string, from, to BreakerState) {
			cfg.metrics.BreakerTransition(key, from, to)
			cfg.debug.LogBreakerTransition(key, from, to)
		})
	}

	return &Client{cfg: cfg}
}

// Send executes req against deadline and priority, returning the final
// Response under scoped acquisition: the caller must call Release on it
// (directly, or via resp.Body.Close()) once done. Every Response this
// method does not return has already been released.
//
// The pipeline:
//  1. If a Breaker is configured and open for this request's key, return
//     the configured fallback instead of running the Strategy.
//  2. Run the Strategy. Each attempt applies the request enricher chain
//     (deadline/priority/request-id headers) using the *current* remaining
//     deadline, not the original, calls the Transport, and applies the
//     response enricher chain.
//  3. Classify the Strategy's final outcome and report it to the Breaker.
//
// Strategy.Execute drives how many attempts happen and with what pacing;
// the Breaker is consulted and reported to once per Send, not per attempt.
func (c *Client) Send(ctx context.Context, req *Request, deadline Deadline, priority Priority) (*Response, error) {
	req = c.resolveURL(req)

	if c.cfg.rateLimiter != nil {
		if c.cfg.rateLimiter.WaitOnLimit() {
			waitCtx, cancel := context.WithTimeout(ctx, deadline.Remaining())
			err := c.cfg.rateLimiter.Wait(waitCtx, req)
			cancel()
			if err != nil {
				return nil, ErrRateLimited
			}
		} else if !c.cfg.rateLimiter.Allow(req) {
			return nil, ErrRateLimited
		}
	}

	if c.cfg.coalescer != nil && Coalescable(req) {
		return c.sendCoalesced(ctx, req, deadline, priority)
	}

	return c.sendDirect(ctx, req, deadline, priority)
}

func (c *Client) sendCoalesced(ctx context.Context, req *Request, deadline Deadline, priority Priority) (*Response, error) {
	key, err := GenerateCoalesceKey(req)
	if err != nil {
		return c.sendDirect(ctx, req, deadline, priority)
	}

	resp, shared, err := c.cfg.coalescer.Do(ctx, key, func() (*Response, error) {
		return c.sendDirect(ctx, req, deadline, priority)
	})
	if shared && resp != nil {
		// A shared Response's body has already been (or is being) read by
		// the caller that actually triggered the transport call; callers
		// behind a coalesced request get the status and headers only.
		return &Response{StatusCode: resp.StatusCode, Headers: resp.Headers}, err
	}
	return resp, err
}

func (c *Client) sendDirect(ctx context.Context, req *Request, deadline Deadline, priority Priority) (*Response, error) {
	if c.cfg.breaker != nil {
		if !c.cfg.breaker.Allow(req) {
			return c.cfg.fallback(req)
		}
	}

	attempt := 0
	send := func(ctx context.Context, attemptDeadline Deadline) (*Response, Verdict, error) {
		defer func() { attempt++ }()
		return c.sendOnce(ctx, req, attemptDeadline, priority, attempt)
	}

	resp, err := c.cfg.strategy.Execute(ctx, req, send, deadline, priority)

	if c.cfg.breaker != nil {
		verdict := c.cfg.classifier.Classify(resp, err)
		c.cfg.breaker.Report(req, resp, classifierOutcomeError(verdict, err))
	}

	return resp, err
}

// classifierOutcomeError normalizes what Breaker.Report sees: a Reject
// verdict always looks like a failure to the breaker, even when the
// underlying call returned a Response (e.g. a 503) rather than a Go error.
func classifierOutcomeError(verdict Verdict, err error) error {
	if verdict == Reject && err == nil {
		return ErrTransport
	}
	return err
}

func (c *Client) sendOnce(ctx context.Context, req *Request, deadline Deadline, priority Priority, attempt int) (*Response, Verdict, error) {
	enriched := c.cfg.requestEnricher.EnrichRequest(req, deadline, priority)

	spanCtx, endSpan := startAttemptSpan(ctx, enriched, attempt)
	start := time.Now()

	resp, err := c.cfg.transport.Send(spanCtx, enriched, deadline)
	latency := time.Since(start)
	endSpan(resp, err)

	if resp != nil {
		resp = c.cfg.responseEnricher.EnrichResponse(resp)
	}

	verdict := c.cfg.classifier.Classify(resp, err)

	c.cfg.debug.LogAttempt(enriched, attempt, deadline, resp, err)
	c.cfg.metrics.Outcome(enriched.URL(), enriched.Method(), outcomeLabel(resp, err), latency)
	if resp != nil {
		defaultLatencyTracker.Record(DefaultBreakerKey(enriched), latency)
	}

	return resp, verdict, err
}

func outcomeLabel(resp *Response, err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnect):
		return "connect_error"
	case err != nil:
		return "transport_error"
	case resp != nil:
		return strconv.Itoa(resp.StatusCode)
	default:
		return "unknown"
	}
}

// resolveURL prefixes req's URL with the configured BaseURL when the URL
// is not already absolute.
func (c *Client) resolveURL(req *Request) *Request {
	if c.cfg.baseURL == "" {
		return req
	}
	if strings.HasPrefix(req.URL(), "http://") || strings.HasPrefix(req.URL(), "https://") {
		return req
	}
	joined := strings.TrimRight(c.cfg.baseURL, "/") + "/" + strings.TrimLeft(req.URL(), "/")
	c2 := NewRequest(req.Method(), joined)
	c2.headers = req.headers
	c2.body = req.body
	c2.pathParameters = req.pathParameters
	c2.queryParams = req.queryParams
	return c2
}
