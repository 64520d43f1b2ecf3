// Package gate holds the daemon's serving flag and lets the coordinator
// sleep until something flips it back to stopped.
package gate

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadyServing is returned by a second MarkServing.
	ErrAlreadyServing = errors.New("gate already serving")
	// ErrClosed is returned by MarkServing after the gate has stopped.
	ErrClosed = errors.New("gate closed")
)

// State is the gate's position in its one-way lifecycle.
type State int

const (
	// StateIdle is the initial state: stopped, serving never begun.
	StateIdle State = iota
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Gate is a stopped flag guarded by a mutex and condition variable. The flag
// starts true, goes false once at MarkServing, and returns to true once at
// MarkStopped. The zero value is not usable; call New.
type Gate struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state State
}

// New returns a gate in the idle (stopped) state.
func New() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// MarkServing flips the gate to serving.
func (g *Gate) MarkServing() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateServing:
		return ErrAlreadyServing
	case StateStopped:
		return ErrClosed
	}
	g.state = StateServing
	return nil
}

// MarkStopped flips the gate to stopped and wakes every waiter. It reports
// whether this call made the transition; repeat calls do nothing.
func (g *Gate) MarkStopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateStopped {
		return false
	}
	g.state = StateStopped
	g.cond.Broadcast()
	return true
}

// WaitUntilStopped blocks while the gate is serving. An idle gate is
// already stopped, so waiting on it returns at once.
func (g *Gate) WaitUntilStopped() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.state == StateServing {
		g.cond.Wait()
	}
}

// Serving reports whether the gate is between MarkServing and MarkStopped.
func (g *Gate) Serving() bool {
	return g.State() == StateServing
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
