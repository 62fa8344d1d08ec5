// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/cleanplate/metrics"
)

// ErrExhausted matches every error returned after the last allowed attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Observer is told about every attempt. err is nil when the attempt succeeded.
type Observer interface {
	Attempt(label string, attempt, maxAttempts int, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(label string, attempt, maxAttempts int, err error)

func (f ObserverFunc) Attempt(label string, attempt, maxAttempts int, err error) {
	f(label, attempt, maxAttempts, err)
}

// Policy is a bounded, fixed-delay retry policy. Attempts never overlap.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Observer    Observer
}

// DefaultPolicy makes three attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// ExhaustedError carries the last failure once every attempt has failed.
type ExhaustedError struct {
	Label    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Label, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Err}
}

// Do runs op until it succeeds, the policy runs out of attempts, or ctx is
// done. It returns the value of the successful attempt and how many
// attempts were made. Every failure is retried; op decides what counts as
// failure, including answers that parsed but made no sense.
func Do[T any](ctx context.Context, p Policy, label string, op func(ctx context.Context) (T, error)) (T, int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	var last error
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(maxAttempts-1)),
		ctx,
	)

	v, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempts++
		v, err := op(ctx)

		outcome := "success"
		if err != nil {
			last = err
			outcome = "retry"
			if attempts >= maxAttempts {
				outcome = "exhausted"
			}
		}
		metrics.RetryAttemptsTotal.WithLabelValues(outcome).Inc()
		if p.Observer != nil {
			p.Observer.Attempt(label, attempts, maxAttempts, err)
		}
		return v, err
	}, b, nil)

	if err == nil {
		return v, attempts, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, attempts, fmt.Errorf("%s: %w", label, ctxErr)
	}
	if last == nil {
		last = err
	}
	return zero, attempts, &ExhaustedError{Label: label, Attempts: attempts, Err: last}
}
