package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	t.Run("unbounded", func(t *testing.T) {
		p := DefaultRetryPolicy()
		if !p.Allows(1) || !p.Allows(1000) {
			t.Error("default policy retries forever")
		}
		if p.delay(3) != DefaultPause {
			t.Errorf("expected %s, got %s", DefaultPause, p.delay(3))
		}
	})

	t.Run("bounded", func(t *testing.T) {
		p := RetryPolicy{MaxAttempts: 2}
		if !p.Allows(2) || p.Allows(3) {
			t.Error("expected two retries")
		}
		if p.delay(1) != DefaultPause {
			t.Errorf("nil Delay should fall back to %s", DefaultPause)
		}
	})
}

func TestExponentialDelay(t *testing.T) {
	delay := ExponentialDelay(time.Second, 5*time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := delay(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %s, got %s", tt.attempt, tt.want, got)
		}
	}
}

func TestSleep(t *testing.T) {
	if err := sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := sleep(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("zero sleep should still report cancellation, got %v", err)
	}
}
