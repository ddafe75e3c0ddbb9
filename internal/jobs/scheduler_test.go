package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsImmediately(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int64
	runner := RunnerFunc(func(context.Context) error {
		runs.Add(1)
		cancel()
		return nil
	})

	s := Scheduler{Name: "test", Runner: runner, Interval: time.Hour}
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want exactly the immediate pass", got)
	}
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	runner := RunnerFunc(func(context.Context) error {
		if runs.Add(1) >= 3 {
			cancel()
		}
		return nil
	})

	s := Scheduler{Name: "test", Runner: runner, Interval: time.Millisecond}
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not reach three passes")
	}
	if got := runs.Load(); got < 3 {
		t.Fatalf("runs = %d, want at least 3", got)
	}
}

func TestScheduler_NoRunnerOrIntervalIsNoop(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		s := Scheduler{Name: "test"}
		s.Run(context.Background())
		s = Scheduler{Name: "test", Runner: RunnerFunc(func(context.Context) error { return nil })}
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("misconfigured scheduler must return immediately")
	}
}
