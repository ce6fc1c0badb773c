package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func testConfig(maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Timeout:    time.Second,
	}
}

func TestWithRetrySuccess(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), testConfig(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), testConfig(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errBoom
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), testConfig(2), func(ctx context.Context) (int, error) {
		calls++
		return 0, errBoom
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial attempt plus 2 retries)", calls)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, should wrap the last attempt's error", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %v, should report the attempt count", err)
	}
}

func TestWithRetrySingleAttemptReturnsRawError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), testConfig(0), func(ctx context.Context) (int, error) {
		calls++
		return 0, errBoom
	})
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1", calls)
	}
	if err != errBoom {
		t.Errorf("err = %v, a single attempt must return the operation's error unwrapped", err)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := WithRetry(ctx, testConfig(10), func(opCtx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errBoom
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, cancellation should stop further attempts", calls)
	}
}

func TestWithRetryAppliesPerAttemptTimeout(t *testing.T) {
	config := testConfig(0)
	config.Timeout = 10 * time.Millisecond

	_, err := WithRetry(context.Background(), config, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	base := 10 * time.Millisecond
	max := 80 * time.Millisecond

	for attempt := 0; attempt < 40; attempt++ {
		delay := backoffDelay(attempt, base, max)
		if delay > max {
			t.Fatalf("attempt %d: delay %v exceeds max %v", attempt, delay, max)
		}
		if delay < 0 {
			t.Fatalf("attempt %d: negative delay %v", attempt, delay)
		}
	}
}
