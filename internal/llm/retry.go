package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider retries failed calls with capped exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps p so that transient failures are retried.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg, sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	badOutputSeen := false

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, r.wait(attempt-1, err)); serr != nil {
				return nil, serr
			}
		} else if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &badOutputSeen) {
			return nil, err
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err may go away on another attempt. Provider
// outages always may; malformed output gets one second chance; truncation
// and cancellation never do.
func retryable(err error, badOutputSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *TruncatedError
	if errors.As(err, &truncated) {
		return false
	}
	var bad *BadOutputError
	if errors.As(err, &bad) {
		if *badOutputSeen {
			return false
		}
		*badOutputSeen = true
	}
	return true
}

// wait is the pause before the retry following attempt n (zero-based).
// A provider's Retry-After wins over the computed backoff.
func (r *RetryProvider) wait(n int, err error) time.Duration {
	var unavail *UnavailableError
	if errors.As(err, &unavail) && unavail.RetryAfter > 0 {
		return unavail.RetryAfter
	}

	d := r.config.InitialWait
	for range n {
		d = time.Duration(float64(d) * r.config.Multiplier)
		if d >= r.config.MaxWait {
			break
		}
	}
	d = min(d, r.config.MaxWait)

	// ±20% jitter keeps concurrent tutors from retrying in lockstep.
	jitter := time.Duration(float64(d) * 0.2 * (2*rand.Float64() - 1))
	return max(d+jitter, 0)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
