package request

import (
	"context"
	"time"
)

// DeadlineProvider derives a per-attempt Deadline from the parent Deadline
// and the number of attempts remaining (including the one about to run).
// The default used by SequentialStrategy splits the remaining budget
// evenly across remaining attempts, inflated by a configurable factor.
type DeadlineProvider func(parent Deadline, remainingAttempts int) Deadline

// DefaultDeadlineProvider splits the parent's remaining budget evenly
// across remainingAttempts, with factor extra headroom per attempt (see
// Deadline.Split).
func DefaultDeadlineProvider(factor float64) DeadlineProvider {
	return func(parent Deadline, remainingAttempts int) Deadline {
		return parent.Split(remainingAttempts, factor)
	}
}

// SequentialConfig configures SequentialStrategy.
type SequentialConfig struct {
	// AttemptsCount is the maximum number of attempts. Must be >= 1.
	AttemptsCount int

	// Delays returns how long to wait before attempt i. Default:
	// ConstantDelay(0).
	Delays DelaysProvider

	// DeadlineProvider derives each attempt's Deadline from what remains
	// of the parent. Default: DefaultDeadlineProvider(1.0).
	DeadlineProvider DeadlineProvider

	// MinAttemptTimeout is the smallest per-attempt deadline worth
	// launching; an attempt whose derived deadline falls at or below this
	// is skipped rather than issued, since it would be all but certain to
	// time out before completing. Default: 10ms.
	MinAttemptTimeout time.Duration
}

func (c SequentialConfig) withDefaults() SequentialConfig {
	if c.AttemptsCount < 1 {
		c.AttemptsCount = 1
	}
	if c.Delays == nil {
		c.Delays = ConstantDelay(0)
	}
	if c.DeadlineProvider == nil {
		c.DeadlineProvider = DefaultDeadlineProvider(1.0)
	}
	if c.MinAttemptTimeout <= 0 {
		c.MinAttemptTimeout = 10 * time.Millisecond
	}
	return c
}

// SequentialStrategy retries attempts one at a time, waiting between them
// as directed by a DelaysProvider and splitting the remaining deadline
// across the attempts that remain.
type SequentialStrategy struct {
	cfg SequentialConfig
}

// NewSequentialStrategy returns a SequentialStrategy configured by cfg.
func NewSequentialStrategy(cfg SequentialConfig) *SequentialStrategy {
	return &SequentialStrategy{cfg: cfg.withDefaults()}
}

// Execute implements Strategy.
func (s *SequentialStrategy) Execute(ctx context.Context, _ *Request, send SendFunc, deadline Deadline, _ Priority) (*Response, error) {
	var last attemptOutcome

	for i := 0; i < s.cfg.AttemptsCount; i++ {
		if deadline.Expired() {
			break
		}

		if d := s.cfg.Delays.Delay(i); d > 0 {
			if !sleepWithinDeadline(ctx, d, deadline) {
				break
			}
		}

		attemptDeadline := s.cfg.DeadlineProvider(deadline, s.cfg.AttemptsCount-i)
		if attemptDeadline.Remaining() <= s.cfg.MinAttemptTimeout {
			break
		}

		last.release()

		resp, verdict, err := send(ctx, attemptDeadline)
		last = attemptOutcome{resp: resp, verdict: verdict, err: err}

		if verdict == Accept {
			return resp, err
		}

		select {
		case <-ctx.Done():
			last.release()
			return nil, ctx.Err()
		default:
		}
	}

	return last.resp, last.err
}

// sleepWithinDeadline waits for d, but returns early (reporting false) if
// ctx is cancelled or deadline expires first.
func sleepWithinDeadline(ctx context.Context, d time.Duration, deadline Deadline) bool {
	if remaining := deadline.Remaining(); d > remaining {
		d = remaining
	}
	if d <= 0 {
		return !deadline.Expired()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
