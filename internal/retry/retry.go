package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultDelay      = 5 * time.Second
)

// Policy describes how an operation is retried. MaxRetries counts the
// attempts made after the first one, so a policy with MaxRetries = 3 performs
// at most four attempts. The delay between attempts is fixed.
type Policy struct {
	MaxRetries  int
	Delay       time.Duration
	IsRetryable func(error) bool

	// Sleeper overrides how inter-attempt waits are performed. Tests use it
	// to avoid real delays.
	Sleeper func(time.Duration)
}

// Default returns the policy applied when configuration supplies nothing.
func Default() Policy {
	return Policy{MaxRetries: defaultMaxRetries, Delay: defaultDelay, IsRetryable: Transient}
}

// Do runs fn, retrying per the policy. The whole operation restarts from its
// beginning on every attempt; nothing about partial progress is kept. A
// non-retryable error, context cancellation, or retry exhaustion ends the
// loop, and exhaustion wraps the last error with the attempt count.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.IsRetryable
	if retryable == nil {
		retryable = Transient
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (p Policy) sleep(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(p.Delay)
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transient reports whether err looks like a transport hiccup worth another
// attempt: network timeouts and connection-level failures. HTTP status
// classification is layered on by the clients that see status codes.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Connection resets and refused connections surface as *url.Error
		// without a timeout flag; treat any non-context transport error as
		// transient.
		return !errors.Is(urlErr.Err, context.Canceled) && !errors.Is(urlErr.Err, context.DeadlineExceeded)
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
