package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipcast/internal/retry"
)

var errTransient = errors.New("transient")

func policy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxRetries:  maxRetries,
		Delay:       time.Second,
		IsRetryable: func(err error) bool { return errors.Is(err, errTransient) },
		Sleeper:     func(time.Duration) {},
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := policy(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d; want 3", calls)
	}
}

func TestDoExhaustsRetryBound(t *testing.T) {
	calls := 0
	err := policy(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errTransient
	})
	if err == nil {
		t.Fatal("expected terminal failure")
	}
	// MaxRetries = 3 means one initial attempt plus three retries.
	if calls != 4 {
		t.Fatalf("calls = %d; want 4", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Fatalf("terminal error should wrap the last failure: %v", err)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad request")
	calls := 0
	err := policy(5).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v; want the non-retryable error unchanged", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d; want 1", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy(5).Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d; want 1", calls)
	}
}

func TestDoSleepsBetweenAttempts(t *testing.T) {
	var slept []time.Duration
	p := retry.Policy{
		MaxRetries:  2,
		Delay:       5 * time.Second,
		IsRetryable: func(error) bool { return true },
		Sleeper:     func(d time.Duration) { slept = append(slept, d) },
	}
	_ = p.Do(context.Background(), "op", func(context.Context) error { return errTransient })
	if len(slept) != 2 {
		t.Fatalf("sleeps = %d; want 2", len(slept))
	}
	for _, d := range slept {
		if d != 5*time.Second {
			t.Fatalf("sleep duration = %v; want fixed 5s", d)
		}
	}
}
