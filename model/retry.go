package model

import (
	"context"
	"time"
)

// RetryOptions configure the retry decorator.
type RetryOptions struct {
	// MaxAttempts is the total number of Infer attempts, including the
	// first one.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles on
	// each subsequent attempt.
	BaseDelay time.Duration
}

type retryBackend struct {
	next Backend
	opts RetryOptions
}

// WithRetry wraps a backend with bounded exponential backoff on transient
// errors. Permanent errors and context cancellation propagate immediately.
// Retry lives in this layer so the scheduler never re-executes nodes.
func WithRetry(next Backend, optFns ...func(o *RetryOptions)) Backend {
	opts := RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &retryBackend{next: next, opts: opts}
}

// Info implements Backend.
func (r *retryBackend) Info() Info { return r.next.Info() }

// Infer implements Backend.
func (r *retryBackend) Infer(ctx context.Context, req Request) (Output, error) {
	delay := r.opts.BaseDelay
	var lastErr error

	for attempt := 0; attempt < r.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Output{}, ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		out, err := r.next.Infer(ctx, req)
		if err == nil {
			return out, nil
		}
		if !IsTransient(err) {
			return Output{}, err
		}
		lastErr = err
	}
	return Output{}, lastErr
}
