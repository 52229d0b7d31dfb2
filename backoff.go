package opruntime

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffFunc computes the delay to wait before retry attempt i, where i is
// the index of the attempt about to start (Retry passes 1 before the first
// retry, after attempt 0 failed). Bound to Context via BackoffKey.
type BackoffFunc func(attempt int) time.Duration

// FibonacciBackoff is the spec's default: delay grows along the
// Fibonacci sequence scaled by unit (spec.md §3: "default = fibonacci·1s").
func FibonacciBackoff(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		a, b := 1, 1
		for i := 0; i < attempt; i++ {
			a, b = b, a+b
		}
		return time.Duration(a) * unit
	}
}

// ConstantBackoff always waits the same duration; handy in tests and for
// operations whose retry timing should not grow with attempt count.
func ConstantBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff builds an attempt-indexed BackoffFunc from
// cenkalti/backoff/v5's ExponentialBackOff configuration (initial
// interval, multiplier, max interval): the same growth curve the
// library's stateful generator produces, computed directly from attempt
// index so the function stays pure, the same contract FibonacciBackoff
// and ConstantBackoff honor.
func ExponentialBackoff(initial time.Duration, max time.Duration) BackoffFunc {
	cfg := backoff.NewExponentialBackOff()
	cfg.InitialInterval = initial
	cfg.MaxInterval = max
	multiplier := cfg.Multiplier
	if multiplier <= 1 {
		multiplier = 1.5
	}
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		d := float64(cfg.InitialInterval)
		for i := 0; i < attempt; i++ {
			d *= multiplier
			if d > float64(cfg.MaxInterval) {
				return cfg.MaxInterval
			}
		}
		return time.Duration(d)
	}
}
