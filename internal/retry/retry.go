// Package retry runs an operation a bounded number of times with exponential
// backoff. Exhaustion is reported to the caller, never swallowed.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

var ErrExhausted = errors.New("retry: attempts exhausted")

type Policy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultPolicy(maxAttempts int) Policy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return Policy{
		MaxAttempts:     uint(maxAttempts),
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Permanent stops retrying and returns err as is.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	attempts := uint(0)
	permanent := false
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := fn(ctx)

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(max(p.MaxAttempts, 1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("op", op).Dur("next", next).Msg("retrying")
		}),
	)
	if err == nil {
		return nil
	}

	if permanent || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, op, attempts, err)
}
