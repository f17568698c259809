package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Policy describes a fixed-interval connect-with-backoff loop.
// MaxAttempts == 0 retries until the operation succeeds or the context
// is cancelled.
type Policy struct {
	MaxAttempts uint64
	Interval    time.Duration
}

// Bounded returns a policy that gives up after maxAttempts tries.
func Bounded(maxAttempts int, interval time.Duration) Policy {
	return Policy{MaxAttempts: uint64(maxAttempts), Interval: interval}
}

// Unbounded returns a policy that never gives up. Used for broker
// connections: a consumer is disposable and expected to keep waiting
// for its dependency.
func Unbounded(interval time.Duration) Policy {
	return Policy{Interval: interval}
}

// Do runs op under the policy, logging each failed attempt. It returns
// the last error once attempts are exhausted or the context ends.
func Do(ctx context.Context, p Policy, log zerolog.Logger, op func() error) error {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	if p.MaxAttempts > 0 {
		// WithMaxRetries counts retries, not attempts.
		b = backoff.WithMaxRetries(b, p.MaxAttempts-1)
	}

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return op()
		},
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("retry_in", next).
				Msg("dependency not ready, retrying")
		},
	)
}
