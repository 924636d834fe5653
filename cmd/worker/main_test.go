package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunLeaderGatedDrainsCycleAfterStop(t *testing.T) {
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()
	loopCtx, stopLoops := context.WithCancel(cycleCtx)
	defer stopLoops()

	var cycles sync.WaitGroup
	started := make(chan struct{})
	interrupted := make(chan bool, 1)

	go runLeaderGated(loopCtx, cycleCtx, &cycles, func() bool { return true }, 10*time.Millisecond, "test", func(ctx context.Context) {
		close(started)
		// Simulate an in-flight outbound call: it must see a live context
		// even after the loop is told to stop.
		select {
		case <-ctx.Done():
			interrupted <- true
		case <-time.After(100 * time.Millisecond):
			interrupted <- false
		}
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("cycle never started")
	}

	stopLoops()

	if !waitWithTimeout(&cycles, time.Second) {
		t.Fatal("cycle did not drain within the grace window")
	}
	if <-interrupted {
		t.Error("in-flight cycle was cancelled by the loop stop; it must run until the hard cancel")
	}
}

func TestRunLeaderGatedStopsNewCyclesAfterStop(t *testing.T) {
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()
	loopCtx, stopLoops := context.WithCancel(cycleCtx)

	var cycles sync.WaitGroup
	var mu sync.Mutex
	runs := 0

	done := make(chan struct{})
	go func() {
		runLeaderGated(loopCtx, cycleCtx, &cycles, func() bool { return true }, 10*time.Millisecond, "test", func(ctx context.Context) {
			mu.Lock()
			runs++
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	stopLoops()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after stop")
	}

	mu.Lock()
	after := runs
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if runs != after {
		t.Errorf("cycles kept running after the loop stopped: %d -> %d", after, runs)
	}
}

func TestRunLeaderGatedSkipsWhenNotLeading(t *testing.T) {
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()
	loopCtx, stopLoops := context.WithCancel(cycleCtx)

	var cycles sync.WaitGroup
	ran := make(chan struct{}, 1)

	go runLeaderGated(loopCtx, cycleCtx, &cycles, func() bool { return false }, 10*time.Millisecond, "test", func(ctx context.Context) {
		ran <- struct{}{}
	})

	select {
	case <-ran:
		t.Error("cycle ran without leadership")
	case <-time.After(60 * time.Millisecond):
	}
	stopLoops()
}

func TestWaitWithTimeoutExpires(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Done()

	if waitWithTimeout(&wg, 20*time.Millisecond) {
		t.Error("expected timeout with a held waitgroup")
	}

	var empty sync.WaitGroup
	if !waitWithTimeout(&empty, 20*time.Millisecond) {
		t.Error("expected immediate success with an empty waitgroup")
	}
}
