package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"resume-matcher/internal/prompt"
	"resume-matcher/internal/shared/telemetry"
)

const (
	defaultMaxAttempts = 3
	defaultTimeout     = 45 * time.Second
	defaultBaseDelay   = 300 * time.Millisecond
)

// RetryOptions bounds the calls made by a retrying client.
type RetryOptions struct {
	// MaxAttempts counts the first call; values below 1 select the default of 3.
	MaxAttempts int
	// Timeout applies to each attempt; zero selects 45s.
	Timeout time.Duration
	// BaseDelay is the first backoff interval; zero selects 300ms.
	BaseDelay time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
	return o
}

type retrying struct {
	base Client
	opts RetryOptions
}

// WithRetry wraps base with a per-attempt timeout and exponential backoff between
// transient failures. Returned errors always wrap ErrUpstream, and ErrTimeout when a
// deadline caused the final failure.
func WithRetry(base Client, opts RetryOptions) Client {
	return &retrying{base: base, opts: opts.withDefaults()}
}

func (r *retrying) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	var (
		out     string
		attempt int
	)
	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()

		resp, err := r.base.Complete(callCtx, p)
		if err == nil {
			out = resp
			return nil
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, r.opts.Timeout, err)
		}
		if ctx.Err() != nil || !ShouldRetry(err) {
			return backoff.Permanent(err)
		}
		if attempt < r.opts.MaxAttempts {
			telemetry.Warn("llm retry", map[string]any{
				"attempt":       attempt,
				"maxAttempts":   r.opts.MaxAttempts,
				"promptVersion": p.Version,
				"error":         trimError(err),
			})
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.BaseDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.opts.MaxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if IsTimeout(err) && !errors.Is(err, ErrTimeout) {
			return "", fmt.Errorf("%w: %w: %w", ErrUpstream, ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return out, nil
}

// ShouldRetry reports whether err looks transient: deadlines, network faults, throttling
// and server-side errors.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}

func trimError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
