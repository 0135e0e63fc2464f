package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Middleware decorates a Generator.
type Middleware func(Generator) Generator

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Generator, mws ...Middleware) Generator {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Timeout --------

// Timeout bounds each call by Request.Timeout, or by fallback when the
// request carries none. A zero fallback leaves such calls unbounded.
func Timeout(fallback time.Duration) Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, r Request) (string, error) {
			d := r.Timeout
			if d <= 0 {
				d = fallback
			}
			if d <= 0 {
				return next.Complete(ctx, r)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, r)
		})
	}
}

// -------- Retry with exponential backoff --------

// Retry retries Complete up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and a done context stop it.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Generator) Generator {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Generator
	max  int
	base time.Duration
}

func (r *retrying) Complete(ctx context.Context, req Request) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}

// -------- Logging --------

// Logging logs request size, latency and errors.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, r Request) (string, error) {
			start := time.Now()
			out, err := next.Complete(ctx, r)
			attrs := []any{
				"purpose", r.Purpose,
				"prompt_bytes", len(r.System) + len(r.User),
				"duration", time.Since(start).Round(time.Millisecond),
			}
			if err != nil {
				logger.Warn("llm call failed", append(attrs, "error", err)...)
				return out, err
			}
			logger.Debug("llm call", append(attrs, "completion_bytes", len(out))...)
			return out, nil
		})
	}
}
