package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counting(calls *atomic.Int32, err error) RunFunc {
	return func(context.Context) error {
		calls.Add(1)
		return err
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(counting(&calls, nil), time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want exactly one immediate run", got)
	}
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(counting(&calls, nil), 50*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Allow time for at least two full passes (run → sleep interval → run).
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	if got := calls.Load(); got < 2 {
		t.Errorf("calls = %d, want >= 2", got)
	}
}

func TestRun_FailedRunDoesNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(counting(&calls, errors.New("crawl failed")), 30*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("expected nil error on cancel, got: %v", err)
	}
	if got := calls.Load(); got < 2 {
		t.Errorf("calls = %d, want >= 2 despite failures", got)
	}
}

func TestRun_CancelDuringRunStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	run := func(ctx context.Context) error {
		calls.Add(1)
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	s := NewScheduler(run, time.Millisecond, discardLogger())

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}
