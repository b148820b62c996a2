package modeladapter

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/germanamz/koinonia/pkg/modeladapter/usage"
)

var _ Streamer = (*RetryingStreamer)(nil)

// RetryingStreamer wraps a Streamer with reactive 429 retry using exponential
// backoff and jitter. Only opening a stream is retried; once events flow a
// failure belongs to the caller. When the inner streamer reports rate limit
// headers with no remaining capacity, the next open waits for the reset.
type RetryingStreamer struct {
	inner      Streamer
	maxRetries int           // max retries on 429
	baseDelay  time.Duration // initial backoff delay
	maxWait    time.Duration // upper bound for a single wait

	fallbackTracker usage.Tracker // stable fallback tracker when inner lacks UsageReporter

	// nowFunc is used for testing; defaults to time.Now.
	nowFunc func() time.Time
	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
	// randFunc returns a random float64 in [0,1); used for jitter. Defaults to rand.Float64.
	randFunc func() float64
}

// RetryOpts configures the RetryingStreamer.
type RetryOpts struct {
	MaxRetries int           // Max retries on 429 (default 3).
	BaseDelay  time.Duration // Initial backoff delay (default 1s).
	MaxWait    time.Duration // Cap for a single wait (default 1m).
}

// NewRetryingStreamer wraps a Streamer with rate limit retries. A zero
// MaxRetries takes the default; callers that want no retries should not wrap.
func NewRetryingStreamer(inner Streamer, opts RetryOpts) *RetryingStreamer {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = time.Minute
	}

	return &RetryingStreamer{
		inner:      inner,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxWait:    opts.MaxWait,
		nowFunc:    time.Now,
		sleepFunc:  contextSleep,
		randFunc:   rand.Float64,
	}
}

// SetNowFunc overrides the time source (for testing).
func (r *RetryingStreamer) SetNowFunc(fn func() time.Time) { r.nowFunc = fn }

// SetSleepFunc overrides the sleep function (for testing).
func (r *RetryingStreamer) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	r.sleepFunc = fn
}

// SetRandFunc overrides the random number generator (for testing).
func (r *RetryingStreamer) SetRandFunc(fn func() float64) { r.randFunc = fn }

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jitter applies ±25% random jitter to a duration.
func (r *RetryingStreamer) jitter(d time.Duration) time.Duration {
	// Scale factor in [0.75, 1.25).
	factor := 0.75 + r.randFunc()*0.5 //nolint:mnd // jitter range: ±25%
	return time.Duration(float64(d) * factor)
}

// Stream implements Streamer.
func (r *RetryingStreamer) Stream(ctx context.Context, req Request) (Stream, error) {
	if err := r.waitForServerReset(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := range r.maxRetries + 1 {
		s, err := r.inner.Stream(ctx, req)
		if err == nil {
			return s, nil
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return nil, err
		}

		lastErr = err

		if attempt >= r.maxRetries {
			break
		}

		// Compute backoff: baseDelay * 2^attempt, but use RetryAfter if larger. Apply jitter.
		backoff := r.jitter(max(
			r.baseDelay*time.Duration(math.Pow(2, float64(attempt))), //nolint:mnd // exponential backoff formula
			rle.RetryAfter,
		))

		if err := r.sleepFunc(ctx, min(backoff, r.maxWait)); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// CountTokens forwards to the inner streamer when it can count tokens.
func (r *RetryingStreamer) CountTokens(ctx context.Context, req Request) (int, error) {
	tc, ok := r.inner.(TokenCounter)
	if !ok {
		return 0, errors.New("modeladapter: token counting not supported")
	}
	return tc.CountTokens(ctx, req)
}

// waitForServerReset sleeps until the provider's reset time when the last
// response reported near-zero remaining capacity.
func (r *RetryingStreamer) waitForServerReset(ctx context.Context) error {
	reporter, ok := r.inner.(RateLimitInfoReporter)
	if !ok {
		return nil
	}

	info := reporter.LastRateLimitInfo()
	if info == nil {
		return nil
	}

	now := r.nowFunc()
	var sleepUntil time.Time

	if info.RemainingRequests <= 1 && !info.RequestsReset.IsZero() && info.RequestsReset.After(now) {
		sleepUntil = info.RequestsReset
	}

	if info.RemainingTokens <= 1 && !info.TokensReset.IsZero() && info.TokensReset.After(now) {
		if info.TokensReset.After(sleepUntil) {
			sleepUntil = info.TokensReset
		}
	}

	if sleepUntil.IsZero() {
		return nil
	}

	return r.sleepFunc(ctx, min(sleepUntil.Sub(now), r.maxWait))
}

// UsageTracker forwards to the inner streamer if it implements UsageReporter.
func (r *RetryingStreamer) UsageTracker() *usage.Tracker {
	if ur, ok := r.inner.(UsageReporter); ok {
		return ur.UsageTracker()
	}
	return &r.fallbackTracker
}

// ModelMaxTokens forwards to the inner streamer if it implements UsageReporter.
func (r *RetryingStreamer) ModelMaxTokens() int {
	if ur, ok := r.inner.(UsageReporter); ok {
		return ur.ModelMaxTokens()
	}
	return 0
}
