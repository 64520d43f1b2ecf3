package gate

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateLifecycle(t *testing.T) {
	g := New()
	if got := g.State(); got != StateIdle {
		t.Fatalf("initial state = %v, want idle", got)
	}
	if g.Serving() {
		t.Fatal("idle gate reports serving")
	}
	if err := g.MarkServing(); err != nil {
		t.Fatalf("MarkServing: %v", err)
	}
	if !g.Serving() {
		t.Fatal("expected serving after MarkServing")
	}
	if err := g.MarkServing(); !errors.Is(err, ErrAlreadyServing) {
		t.Fatalf("second MarkServing = %v, want ErrAlreadyServing", err)
	}
	if !g.MarkStopped() {
		t.Fatal("first MarkStopped should report the transition")
	}
	if g.MarkStopped() {
		t.Fatal("second MarkStopped should be a no-op")
	}
	if err := g.MarkServing(); !errors.Is(err, ErrClosed) {
		t.Fatalf("MarkServing after stop = %v, want ErrClosed", err)
	}
	if got := g.State(); got != StateStopped {
		t.Fatalf("final state = %v, want stopped", got)
	}
}

func TestGateStopBeforeServingCloses(t *testing.T) {
	g := New()
	if !g.MarkStopped() {
		t.Fatal("MarkStopped on idle gate should close it")
	}
	if err := g.MarkServing(); !errors.Is(err, ErrClosed) {
		t.Fatalf("MarkServing = %v, want ErrClosed", err)
	}
}

func TestWaitOnIdleGateReturns(t *testing.T) {
	g := New()
	done := make(chan struct{})
	go func() {
		g.WaitUntilStopped()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wait on idle gate blocked")
	}
}

func TestWaitBlocksUntilStopped(t *testing.T) {
	g := New()
	if err := g.MarkServing(); err != nil {
		t.Fatalf("MarkServing: %v", err)
	}
	done := make(chan struct{})
	go func() {
		g.WaitUntilStopped()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned while serving")
	case <-time.After(50 * time.Millisecond):
	}

	g.MarkStopped()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after MarkStopped")
	}
}

func TestGateWakesAllWaiters(t *testing.T) {
	const waiters = 64
	for round := 0; round < 50; round++ {
		g := New()
		if err := g.MarkServing(); err != nil {
			t.Fatalf("MarkServing: %v", err)
		}

		var started, woke sync.WaitGroup
		var returned atomic.Int32
		started.Add(waiters)
		woke.Add(waiters)
		for i := 0; i < waiters; i++ {
			go func() {
				started.Done()
				g.WaitUntilStopped()
				returned.Add(1)
				woke.Done()
			}()
		}
		started.Wait()

		var transitions atomic.Int32
		var stoppers sync.WaitGroup
		for i := 0; i < 8; i++ {
			stoppers.Add(1)
			go func() {
				defer stoppers.Done()
				if g.MarkStopped() {
					transitions.Add(1)
				}
			}()
		}
		stoppers.Wait()

		done := make(chan struct{})
		go func() {
			woke.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: %d of %d waiters woke", round, returned.Load(), waiters)
		}
		if got := transitions.Load(); got != 1 {
			t.Fatalf("round %d: %d transitions, want 1", round, got)
		}
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:    "idle",
		StateServing: "serving",
		StateStopped: "stopped",
		State(42):    "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
