package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Retry() attempts = %d, want 3", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cause := errors.New("always fails")
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return cause
	}, nil)

	if !errors.Is(err, cause) {
		t.Errorf("Retry() error = %v, want wrapped cause", err)
	}
	if attempts != 4 {
		t.Errorf("Retry() attempts = %d, want MaxRetries+1 = 4", attempts)
	}
}

func TestRetryNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return fatal
	}, func(err error) bool { return false })

	if !errors.Is(err, fatal) {
		t.Errorf("Retry() error = %v, want fatal", err)
	}
	if attempts != 1 {
		t.Errorf("Retry() attempts = %d, want 1", attempts)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		return errors.New("transient")
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}
