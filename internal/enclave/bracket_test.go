package enclave

import (
	"errors"
	"testing"
)

type fakeRuntime struct {
	initErr    error
	destroyErr error
	inits      int
	destroys   int
	lastAttr   Attr
}

func (f *fakeRuntime) Init(attr Attr) error {
	f.inits++
	f.lastAttr = attr
	return f.initErr
}

func (f *fakeRuntime) Destroy() error {
	f.destroys++
	return f.destroyErr
}

func newTestBracket(t *testing.T, rt *fakeRuntime) *Bracket {
	t.Helper()
	b, err := NewBracket(rt, nil)
	if err != nil {
		t.Fatalf("NewBracket: %v", err)
	}
	return b
}

func TestBracketAcquireRelease(t *testing.T) {
	rt := &fakeRuntime{}
	b := newTestBracket(t, rt)
	attr := Attr{InstanceDir: "./.occlum", LogLevel: LogOff}

	if err := b.Acquire(attr); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !b.Acquired() {
		t.Fatal("expected bracket to report acquired")
	}
	if rt.lastAttr != attr {
		t.Fatalf("runtime saw %+v, want %+v", rt.lastAttr, attr)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if b.Acquired() {
		t.Fatal("expected bracket to report released")
	}
	if rt.inits != 1 || rt.destroys != 1 {
		t.Fatalf("inits=%d destroys=%d, want 1/1", rt.inits, rt.destroys)
	}
}

func TestBracketRejectsDoubleAcquire(t *testing.T) {
	rt := &fakeRuntime{}
	b := newTestBracket(t, rt)
	if err := b.Acquire(Attr{InstanceDir: "x"}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := b.Acquire(Attr{InstanceDir: "x"}); !errors.Is(err, ErrAlreadyAcquired) {
		t.Fatalf("second Acquire error = %v, want ErrAlreadyAcquired", err)
	}
	if rt.inits != 1 {
		t.Fatalf("inits = %d, want 1", rt.inits)
	}
}

func TestBracketReleaseWithoutAcquire(t *testing.T) {
	rt := &fakeRuntime{}
	b := newTestBracket(t, rt)
	if err := b.Release(); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("Release error = %v, want ErrNotAcquired", err)
	}
	if rt.destroys != 0 {
		t.Fatalf("destroy called %d times", rt.destroys)
	}
}

func TestBracketDoubleRelease(t *testing.T) {
	rt := &fakeRuntime{}
	b := newTestBracket(t, rt)
	if err := b.Acquire(Attr{InstanceDir: "x"}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := b.Release(); !errors.Is(err, ErrReleased) {
		t.Fatalf("second Release error = %v, want ErrReleased", err)
	}
	if err := b.Acquire(Attr{InstanceDir: "x"}); !errors.Is(err, ErrReleased) {
		t.Fatalf("Acquire after release error = %v, want ErrReleased", err)
	}
	if rt.destroys != 1 {
		t.Fatalf("destroys = %d, want 1", rt.destroys)
	}
}

func TestBracketFailedAcquireSpendsBracket(t *testing.T) {
	rt := &fakeRuntime{initErr: &CodeError{Op: "occlum_pal_init", Code: -1}}
	b := newTestBracket(t, rt)

	err := b.Acquire(Attr{InstanceDir: "x"})
	var codeErr *CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != -1 {
		t.Fatalf("Acquire error = %v, want CodeError -1", err)
	}
	if err := b.Release(); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("Release after failed acquire = %v, want ErrNotAcquired", err)
	}
	if err := b.Acquire(Attr{InstanceDir: "x"}); !errors.Is(err, ErrReleased) {
		t.Fatalf("retry Acquire = %v, want ErrReleased", err)
	}
}

func TestBracketReleaseFailureStillCloses(t *testing.T) {
	rt := &fakeRuntime{destroyErr: errors.New("boom")}
	b := newTestBracket(t, rt)
	if err := b.Acquire(Attr{InstanceDir: "x"}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := b.Release(); err == nil {
		t.Fatal("expected destroy error")
	}
	if b.Acquired() {
		t.Fatal("bracket should be closed after failed release")
	}
	if err := b.Release(); !errors.Is(err, ErrReleased) {
		t.Fatalf("second Release = %v, want ErrReleased", err)
	}
}

func TestNewBracketRequiresRuntime(t *testing.T) {
	if _, err := NewBracket(nil, nil); err == nil {
		t.Fatal("expected error for nil runtime")
	}
}
