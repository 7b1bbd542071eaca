package httpserver

import (
	"net/http"
	"strconv"

	"github.com/kroma-labs/resilientreq/request"
)

// Deadline returns middleware that reconstructs the inbound caller's
// deadline and priority from the X-Request-Deadline-At and
// X-Request-Priority headers (see request.DeadlineHeaderEnricher and
// request.PriorityHeaderEnricher on the client side), storing both on the
// request context for handlers and any downstream request.Client calls to
// read back via request.DeadlineFromContext / request.PriorityFromContext.
//
// A request whose deadline has already expired by the time it reaches this
// server is rejected with 503 rather than processed, since any work it
// triggers would be thrown away by the caller regardless of outcome.
//
// A request carrying no deadline header is let through unchanged, with
// ctx carrying no Deadline at all: callers outside this package's
// propagation scheme (health checks, browsers) are not required to send one.
//
// Example:
//
//	handler := httpserver.Deadline()(myHandler)
func Deadline() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := r.Header.Get(request.HeaderPriority); raw != "" {
				if priority, err := request.ParsePriority(raw); err == nil {
					ctx = request.ContextWithPriority(ctx, priority)
				}
			}

			raw := r.Header.Get(request.HeaderDeadlineAt)
			if raw == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			seconds, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			deadline := request.FromDeadlineAt(seconds)
			if deadline.Expired() {
				WriteError(w, http.StatusServiceUnavailable,
					"deadline expired before reaching this service",
					Error{Field: "deadline", Message: "caller's remaining budget was already spent"},
				)
				return
			}

			ctx = request.ContextWithDeadline(ctx, deadline)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
