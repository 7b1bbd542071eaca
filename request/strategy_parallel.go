package request

import (
	"context"
	"time"
)

// ParallelConfig configures ParallelStrategy.
type ParallelConfig struct {
	// AttemptsCount is the maximum number of concurrent attempts. Must be
	// >= 1.
	AttemptsCount int

	// Delays returns the cumulative time since the strategy started at
	// which attempt i should launch, provided no earlier attempt has
	// already been Accepted. Delay(0) is conventionally 0. Default:
	// ConstantDelay(0), which launches every attempt immediately.
	Delays DelaysProvider
}

func (c ParallelConfig) withDefaults() ParallelConfig {
	if c.AttemptsCount < 1 {
		c.AttemptsCount = 1
	}
	if c.Delays == nil {
		c.Delays = ConstantDelay(0)
	}
	return c
}

// ParallelStrategy hedges a request: it launches additional attempts
// on a schedule while earlier ones are still in flight, and returns
// whichever attempt is first classified Accept, cancelling and releasing
// every other in-flight or completed attempt.
type ParallelStrategy struct {
	cfg ParallelConfig
}

// NewParallelStrategy returns a ParallelStrategy configured by cfg.
func NewParallelStrategy(cfg ParallelConfig) *ParallelStrategy {
	return &ParallelStrategy{cfg: cfg.withDefaults()}
}

// Execute implements Strategy.
func (s *ParallelStrategy) Execute(ctx context.Context, _ *Request, send SendFunc, deadline Deadline, _ Priority) (*Response, error) {
	total := s.cfg.AttemptsCount
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	// Sized so every launched attempt's send never blocks, even if nothing
	// is reading results (e.g. the strategy already returned and is just
	// draining stragglers in the background).
	results := make(chan attemptOutcome, total)

	launch := func() {
		go func() {
			resp, verdict, err := send(runCtx, deadline)
			results <- attemptOutcome{resp: resp, verdict: verdict, err: err}
		}()
	}

	launch()
	launchedCount := 1

	var nextTimer *time.Timer
	if total > 1 {
		nextTimer = time.NewTimer(untilCumulativeDelay(start, s.cfg.Delays.Delay(1)))
	}
	deadlineTimer := time.NewTimer(deadline.Remaining())

	var last attemptOutcome
	completed := 0

	for {
		var timerCh <-chan time.Time
		if nextTimer != nil {
			timerCh = nextTimer.C
		}

		select {
		case o := <-results:
			completed++
			if o.verdict == Accept {
				cancel()
				if nextTimer != nil {
					nextTimer.Stop()
				}
				deadlineTimer.Stop()
				drainAndRelease(results, launchedCount-completed, o.resp)
				return o.resp, o.err
			}
			last.release()
			last = o
			if completed >= launchedCount && launchedCount >= total {
				cancel()
				if nextTimer != nil {
					nextTimer.Stop()
				}
				deadlineTimer.Stop()
				return last.resp, last.err
			}

		case <-timerCh:
			launchedCount++
			launch()
			if launchedCount < total {
				nextTimer = time.NewTimer(untilCumulativeDelay(start, s.cfg.Delays.Delay(launchedCount)))
			} else {
				nextTimer = nil
			}

		case <-deadlineTimer.C:
			cancel()
			if nextTimer != nil {
				nextTimer.Stop()
			}
			drainAndRelease(results, launchedCount-completed, nil)
			if last.resp == nil && last.err == nil {
				return nil, NewTransportError(ErrTimeout, nil)
			}
			return last.resp, last.err

		case <-ctx.Done():
			cancel()
			if nextTimer != nil {
				nextTimer.Stop()
			}
			deadlineTimer.Stop()
			drainAndRelease(results, launchedCount-completed, nil)
			last.release()
			return nil, ctx.Err()
		}
	}
}

// untilCumulativeDelay returns how long to wait, from now, so that the
// wait completes cumulativeDelay after start. A delay already in the past
// (an earlier attempt took long enough to "use up" this one's schedule)
// fires immediately.
func untilCumulativeDelay(start time.Time, cumulativeDelay time.Duration) time.Duration {
	target := start.Add(cumulativeDelay)
	if d := time.Until(target); d > 0 {
		return d
	}
	return 0
}

// drainAndRelease consumes the pending outcomes still owed on ch (one per
// attempt launched but not yet observed by the select loop) in the
// background, releasing every Response except keep (which the caller is
// taking ownership of; pass nil to release everything). ch is never closed
// -- every launched attempt sends exactly once, so pending is always exact.
func drainAndRelease(ch <-chan attemptOutcome, pending int, keep *Response) {
	if pending <= 0 {
		return
	}
	go func() {
		for i := 0; i < pending; i++ {
			o := <-ch
			if o.resp != keep {
				o.resp.Release()
			}
		}
	}()
}
