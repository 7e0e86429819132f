package backoff

import (
	"context"
	"testing"
	"time"
)

func TestSleepWithContext_ZeroDuration(t *testing.T) {
	if err := SleepWithContext(context.Background(), 0); err != nil {
		t.Errorf("SleepWithContext(0) error = %v, want nil", err)
	}
}

func TestSleepWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := SleepWithContext(ctx, time.Second); err != context.Canceled {
		t.Errorf("SleepWithContext() error = %v, want context.Canceled", err)
	}
}

func TestSleepWithContext_CompletesNaturally(t *testing.T) {
	start := time.Now()
	if err := SleepWithContext(context.Background(), 10*time.Millisecond); err != nil {
		t.Errorf("SleepWithContext() error = %v, want nil", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("SleepWithContext() returned before the duration elapsed")
	}
}
