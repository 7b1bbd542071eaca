package request

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DelaysProvider is a pure function from an attempt index (0-based) to the
// delay to wait before issuing that attempt. Implementations must not
// depend on anything but attempt; Strategies call it freely, including
// speculatively, without side effects.
type DelaysProvider interface {
	Delay(attempt int) time.Duration
}

// DelaysProviderFunc adapts a plain function to DelaysProvider.
type DelaysProviderFunc func(attempt int) time.Duration

// Delay calls f.
func (f DelaysProviderFunc) Delay(attempt int) time.Duration {
	return f(attempt)
}

// ConstantDelay returns d for every attempt, including attempt 0.
func ConstantDelay(d time.Duration) DelaysProvider {
	return DelaysProviderFunc(func(int) time.Duration { return d })
}

// LinearDelay returns min + multiplier*attempt.
func LinearDelay(min time.Duration, multiplier time.Duration) DelaysProvider {
	return DelaysProviderFunc(func(attempt int) time.Duration {
		return min + time.Duration(attempt)*multiplier
	})
}

// ExponentialDelay returns a delay that grows geometrically with attempt,
// computed via cenkalti/backoff/v5's ExponentialBackOff with its jitter
// (RandomizationFactor) disabled, so the result is deterministic. The
// backoff instance is reset and stepped attempt+1 times per call rather
// than memoized, since DelaysProvider.Delay must remain a pure function of
// attempt alone.
func ExponentialDelay(initial, max time.Duration, multiplier float64) DelaysProvider {
	if multiplier <= 1.0 {
		multiplier = 2.0
	}
	return DelaysProviderFunc(func(attempt int) time.Duration {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.Multiplier = multiplier
		b.RandomizationFactor = 0

		var d time.Duration
		for i := 0; i <= attempt; i++ {
			res, err := b.NextBackOff()
			if err != nil {
				return max
			}
			d = res
		}
		return d
	})
}

// PercentileBasedDelay hedges attempt i at the p-th percentile of key's
// recently observed latencies, as tracked by tracker. Falls back to
// fallback when fewer than the tracker's minimum sample count has been
// observed yet, so early hedged requests degrade to a fixed delay instead
// of hedging immediately (which would defeat the purpose of hedging near
// the tail).
func PercentileBasedDelay(tracker *LatencyTracker, key string, p float64, fallback time.Duration) DelaysProvider {
	return DelaysProviderFunc(func(attempt int) time.Duration {
		if attempt == 0 {
			return 0
		}
		d, ok := tracker.Percentile(key, p)
		if !ok {
			return fallback
		}
		return d
	})
}
