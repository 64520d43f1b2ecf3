package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/fileutil"
	"occlum-exec/internal/ipc"
)

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

const (
	callTimeout  = 2 * time.Second
	pollInterval = 200 * time.Millisecond
)

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// Status fetches the running daemon's status.
func Status(ctx context.Context, socketPath string) (*ipc.StatusResponse, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	resp, err := client.Status(callCtx)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	return resp, nil
}

// WaitForShutdown waits until nothing answers on the socket.
func WaitForShutdown(ctx context.Context, socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		alive, err := answering(ctx, socketPath)
		if err != nil {
			lastErr = err
		} else if !alive {
			return nil
		} else {
			lastErr = fmt.Errorf("daemon still running")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

func answering(ctx context.Context, socketPath string) (bool, error) {
	if _, err := os.Lstat(socketPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return false, err
	}
	defer client.Close()
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := client.Check(callCtx); err != nil {
		if isDaemonUnavailable(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StopAndTerminate requests daemon stop and, when force is set, kills the
// process if it is still alive after gracePeriod.
func StopAndTerminate(ctx context.Context, socketPath string, gracePeriod time.Duration, force bool) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return StopResult{}, err
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	pid := 0
	if st, statusErr := client.Status(callCtx); statusErr == nil && st != nil {
		pid = st.PID
	}
	resp, err := client.Stop(callCtx)
	_ = client.Close()
	if err != nil {
		if isDaemonUnavailable(err) {
			if force {
				return forceKill(socketPath, pid)
			}
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp.Stopped}

	waitErr := WaitForShutdown(ctx, socketPath, gracePeriod)
	if waitErr == nil {
		return result, nil
	}
	if !force {
		return result, waitErr
	}
	killed, err := forceKill(socketPath, pid)
	killed.StopAcknowledged = result.StopAcknowledged
	return killed, err
}

func forceKill(socketPath string, fallbackPID int) (StopResult, error) {
	pidPath := endpoint.PIDPath(socketPath)
	killedPID, err := ForceKillProcess(pidPath, fallbackPID)
	if err != nil {
		return StopResult{}, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	// A killed daemon leaves its socket behind; clear it so the next
	// launch does not need to probe it.
	_ = endpoint.Reclaim(socketPath)
	return StopResult{ForcedKill: true, PID: killedPID}, nil
}

// ForceKillProcess sends SIGKILL to the daemon process and removes its pid
// file.
func ForceKillProcess(pidPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	parsed, err := fileutil.ReadPIDFile(pidPath)
	switch {
	case err == nil:
		pid = parsed
	case errors.Is(err, os.ErrNotExist), errors.Is(err, fileutil.ErrNoPID):
	default:
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s): %w", pidPath, ErrDaemonNotRunning)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if !ProcessAlive(pid) {
		_ = os.Remove(pidPath)
		return 0, fmt.Errorf("daemon process %d: %w", pid, ErrDaemonNotRunning)
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	return pid, nil
}

// ProcessAlive reports whether pid names a live process. A process owned by
// another user still counts.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func isDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, unix.ENOENT) ||
		errors.Is(err, unix.ECONNREFUSED) {
		return true
	}
	return status.Code(err) == codes.Unavailable
}
