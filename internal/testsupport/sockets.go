package testsupport

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

// TempDir creates a directory under the system temp root. t.TempDir paths can
// exceed the sun_path limit once a socket name is appended.
func TempDir(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "oe")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// SocketPath returns an unused socket path in a fresh temp directory.
func SocketPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(TempDir(t), "occlum_exec.sock")
}

// Listen binds a Unix socket at path, skipping the test in sandboxes that
// forbid socket creation.
func Listen(t testing.TB, path string) net.Listener {
	t.Helper()
	listener, err := net.Listen("unix", path)
	if err != nil {
		if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
			t.Skipf("skipping socket test: %v", err)
		}
		t.Fatalf("listen on %s: %v", path, err)
	}
	return listener
}

// StaleSocket leaves a socket file at path with nobody accepting on it.
func StaleSocket(t testing.TB, path string) {
	t.Helper()
	listener := Listen(t, path)
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	if err := listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
}
