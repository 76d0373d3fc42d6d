package resilient

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Options controls retry, backoff, and timeout behavior for a call.
// Zero-valued fields take the DefaultOptions values; to disable retries
// entirely set MaxRetries negative.
type Options struct {
	MaxRetries int           // additional attempts after the first; 0 means default, negative means none
	Timeout    time.Duration // per-attempt bound
	BaseDelay  time.Duration // first backoff delay
	MaxDelay   time.Duration // backoff cap
	Logger     *slog.Logger

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the retry settings used when callers pass a zero
// Options value.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		Timeout:    120 * time.Second,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxRetries == 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Timeout == 0 {
		o.Timeout = d.Timeout
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = d.BaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = d.MaxDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	return o
}

// Do runs fn with a per-attempt timeout and retries retryable failures with
// exponential backoff. On success the operation's value is returned
// unwrapped; on exhaustion a single categorized *Error carries the last
// cause. The component name appears in log lines and in the final error.
func Do[T any](ctx context.Context, component string, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	opts = opts.withDefaults()

	var lastErr error
	var lastKind Kind
	made := 0

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr, lastKind = err, Classify(err)
			break
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if opts.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		made++
		v, err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return v, nil
		}

		// An attempt that outlived its own deadline is a timeout even if the
		// underlying transport reported something else.
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = context.DeadlineExceeded
		}

		lastErr = err
		lastKind = Classify(err)

		opts.Logger.Warn("call attempt failed",
			"component", component,
			"attempt", attempt+1,
			"max_attempts", opts.MaxRetries+1,
			"kind", string(lastKind),
			"error", err,
		)

		if !lastKind.Retryable() || attempt == opts.MaxRetries {
			break
		}

		if err := opts.sleep(ctx, backoffDelay(opts, attempt)); err != nil {
			lastErr, lastKind = err, Classify(err)
			break
		}
	}

	return zero, &Error{
		Kind:      lastKind,
		Component: component,
		Attempts:  made,
		Cause:     lastErr,
	}
}

// backoffDelay is base * 2^attempt plus up to 25% jitter, capped at MaxDelay.
func backoffDelay(opts Options, attempt int) time.Duration {
	d := opts.BaseDelay << uint(attempt)
	if d > opts.MaxDelay || d <= 0 {
		d = opts.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	if d+jitter > opts.MaxDelay {
		return opts.MaxDelay
	}
	return d + jitter
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
