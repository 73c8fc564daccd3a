package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutorCountersSnapshotLatency(t *testing.T) {
	exec := NewExecutor("test-dep")
	exec.Timeout = time.Second

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		})
	}

	snap := exec.CountersSnapshot()
	if snap.Successes != 3 {
		t.Fatalf("expected 3 successes, got %d", snap.Successes)
	}
	if snap.AverageLatency < 0 {
		t.Fatalf("expected non-negative average latency, got %v", snap.AverageLatency)
	}
}

func TestExecutorCountersSnapshotFailure(t *testing.T) {
	exec := NewExecutor("failing-dep")
	exec.Timeout = time.Second
	exec.Retry.MaxAttempts = 1

	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	snap := exec.CountersSnapshot()
	if snap.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", snap.Failures)
	}
}
