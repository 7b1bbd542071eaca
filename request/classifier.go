package request

import "errors"

// Verdict is the outcome of classifying a single attempt.
type Verdict int

const (
	// Accept means the strategy must stop and return this result to the
	// caller. The breaker records a success.
	Accept Verdict = iota
	// Reject means the strategy may retry (subject to its own budget and
	// deadline). The breaker records a failure.
	Reject
)

// String renders the verdict for logging.
func (v Verdict) String() string {
	if v == Accept {
		return "accept"
	}
	return "reject"
}

// ResponseClassifier decides whether an attempt's outcome should be
// accepted or rejected. Exactly one of resp/err is non-nil: a Response, or
// the error returned by Transport.Send.
type ResponseClassifier interface {
	Classify(resp *Response, err error) Verdict
}

// ResponseClassifierFunc adapts a plain function to ResponseClassifier.
type ResponseClassifierFunc func(resp *Response, err error) Verdict

// Classify calls f.
func (f ResponseClassifierFunc) Classify(resp *Response, err error) Verdict {
	return f(resp, err)
}

// DefaultClassifier implements the baseline policy: 2xx/3xx and most 4xx
// responses are Accept; 429, 5xx, and all transport-level errors (Timeout,
// ConnectError, TransportError) are Reject. This mirrors the observation
// that most 4xx codes indicate a client-side request error that retrying
// cannot fix, while 429 signals the server wants the caller to back off and
// try again.
var DefaultClassifier ResponseClassifier = ResponseClassifierFunc(defaultClassify)

func defaultClassify(resp *Response, err error) Verdict {
	if err != nil {
		return Reject
	}
	if resp == nil {
		return Reject
	}
	switch {
	case resp.StatusCode == 429:
		return Reject
	case resp.StatusCode >= 500:
		return Reject
	case resp.StatusCode >= 400:
		return Accept
	default:
		return Accept
	}
}

// AlwaysAcceptClassifier never retries, useful for idempotency-unsafe
// operations layered under a strategy that would otherwise retry.
var AlwaysAcceptClassifier ResponseClassifier = ResponseClassifierFunc(func(*Response, error) Verdict {
	return Accept
})

// AlwaysRejectClassifier always signals retry, bounded only by the
// strategy's own attempt/deadline budget. Mostly useful in tests.
var AlwaysRejectClassifier ResponseClassifier = ResponseClassifierFunc(func(*Response, error) Verdict {
	return Reject
})

// StatusCodeClassifier rejects exactly the given status codes and accepts
// every other status. Transport errors (and a nil response) are rejected
// unconditionally, since no status code applies.
func StatusCodeClassifier(rejectStatuses ...int) ResponseClassifier {
	set := make(map[int]struct{}, len(rejectStatuses))
	for _, s := range rejectStatuses {
		set[s] = struct{}{}
	}
	return ResponseClassifierFunc(func(resp *Response, err error) Verdict {
		if err != nil {
			return Reject
		}
		if resp == nil {
			return Reject
		}
		if _, rejected := set[resp.StatusCode]; rejected {
			return Reject
		}
		return Accept
	})
}

// isTransportErrorKind reports whether err (or something it wraps) is one
// of the sentinel transport error kinds defined in errors.go.
func isTransportErrorKind(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnect) || errors.Is(err, ErrTransport)
}
