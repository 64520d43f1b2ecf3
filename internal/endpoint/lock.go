package endpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockBusy means another launcher held the startup lock past the deadline.
var ErrLockBusy = errors.New("startup lock busy")

const lockRetryDelay = 50 * time.Millisecond

// StartupLock serializes probe, reclaim and bind between launchers racing
// for the same socket. It is not held while serving.
type StartupLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file guarding socketPath.
func LockPath(socketPath string) string {
	return socketPath + ".lock"
}

// PIDPath returns where the serving daemon records its PID.
func PIDPath(socketPath string) string {
	return socketPath + ".pid"
}

// AcquireStartupLock blocks until the lock for socketPath is held or ctx ends.
// An expired deadline is reported as ErrLockBusy; a cancelled ctx is returned
// as context.Canceled.
func AcquireStartupLock(ctx context.Context, socketPath string) (*StartupLock, error) {
	path := LockPath(socketPath)
	lock := flock.New(path)
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockBusy, path)
		}
		return nil, fmt.Errorf("acquire startup lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockBusy, path)
	}
	return &StartupLock{path: path, lock: lock}, nil
}

// Path reports the lock file location.
func (l *StartupLock) Path() string {
	return l.path
}

// Release drops the lock. The lock file stays on disk.
func (l *StartupLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release startup lock %s: %w", l.path, err)
	}
	return nil
}
