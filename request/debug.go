package request

import (
	"time"

	"github.com/rs/zerolog"
)

// DebugLogger logs every attempt through a zerolog.Logger when enabled.
// Disabled by default: Client constructs one with a disabled level so that
// every call site stays allocation-light even when debug logging is off.
type DebugLogger struct {
	logger  zerolog.Logger
	enabled bool
}

// NewDebugLogger returns a DebugLogger writing through logger. enabled
// gates every call; pass false to keep the logger wired but silent, which
// is cheaper to toggle at runtime than reconstructing the Client.
func NewDebugLogger(logger zerolog.Logger, enabled bool) *DebugLogger {
	return &DebugLogger{logger: logger, enabled: enabled}
}

// SetEnabled toggles logging at runtime.
func (d *DebugLogger) SetEnabled(enabled bool) {
	d.enabled = enabled
}

// LogAttempt records one transport attempt's outcome.
func (d *DebugLogger) LogAttempt(req *Request, attempt int, deadline Deadline, resp *Response, err error) {
	if d == nil || !d.enabled {
		return
	}
	ev := d.logger.Debug().
		Str("method", req.Method()).
		Str("url", req.URL()).
		Int("attempt", attempt).
		Dur("remaining", deadline.Remaining())

	if err != nil {
		ev.Err(err).Msg("request attempt failed")
		return
	}
	if resp != nil {
		ev.Int("status", resp.StatusCode).Msg("request attempt completed")
		return
	}
	ev.Msg("request attempt completed with no response")
}

// LogBreakerTransition records a circuit breaker state change.
func (d *DebugLogger) LogBreakerTransition(key string, from, to BreakerState) {
	if d == nil || !d.enabled {
		return
	}
	d.logger.Debug().
		Str("key", key).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker transition")
}

// LogRetryScheduled records that a strategy is about to wait before the
// next attempt.
func (d *DebugLogger) LogRetryScheduled(req *Request, attempt int, delay time.Duration) {
	if d == nil || !d.enabled {
		return
	}
	d.logger.Debug().
		Str("method", req.Method()).
		Str("url", req.URL()).
		Int("next_attempt", attempt).
		Dur("delay", delay).
		Msg("retry scheduled")
}
