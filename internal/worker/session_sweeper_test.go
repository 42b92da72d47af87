package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTable struct {
	calls  atomic.Int64
	remove int
}

func (f *fakeTable) SweepExpired(now time.Time) int {
	f.calls.Add(1)
	return f.remove
}

func TestSessionSweeperSweepsOnInterval(t *testing.T) {
	table := &fakeTable{remove: 2}
	sweeper := NewSessionSweeper(table, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for table.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", table.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}

func TestSessionSweeperStopsBeforeFirstTick(t *testing.T) {
	table := &fakeTable{}
	sweeper := NewSessionSweeper(table, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not return for a cancelled context")
	}
	if table.calls.Load() != 0 {
		t.Errorf("sweep ran %d times, want 0", table.calls.Load())
	}
}
