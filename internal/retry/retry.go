// Package retry bounds retries around outbound calls with an explicit
// policy: attempt count, exponential schedule, and a retryable predicate.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is an immutable retry schedule. The zero value is unusable; build
// one with NewPolicy.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// NewPolicy creates a policy, guarding against nonsense configuration.
func NewPolicy(maxAttempts int, initialInterval time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initialInterval <= 0 {
		initialInterval = time.Second
	}
	return Policy{MaxAttempts: maxAttempts, InitialInterval: initialInterval}
}

// Do runs op, retrying failures the predicate accepts on an exponential
// schedule (interval doubling from InitialInterval, capped at 4x). Errors
// the predicate rejects stop the loop immediately and are returned as-is;
// a nil predicate retries everything. The last error is returned when
// attempts are exhausted.
func (p Policy) Do(op func() error, retryable func(error) bool) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 4 * p.InitialInterval
	bo.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)))
}
