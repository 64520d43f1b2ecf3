package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"occlum-exec/internal/endpoint"
)

// libraryDirs are searched, after LD_LIBRARY_PATH, for a bare PAL name.
var libraryDirs = []string{
	"/opt/occlum/build/lib",
	"/usr/local/lib",
	"/usr/lib",
	"/usr/lib/x86_64-linux-gnu",
	"/lib/x86_64-linux-gnu",
}

// CheckInstanceDir verifies the enclave instance directory exists and is
// readable.
func CheckInstanceDir(path string) Result {
	const name = "Instance directory"
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckSocketDirectory verifies the socket's parent directory accepts new
// entries.
func CheckSocketDirectory(socket string) Result {
	const name = "Socket directory"
	if strings.TrimSpace(socket) == "" {
		return Result{Name: name, Detail: "socket path is empty"}
	}
	return checkDirectory(name, filepath.Dir(socket), unix.W_OK|unix.X_OK, "write ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckPALLibrary verifies the PAL shared object can be found. Paths are
// checked directly; bare names are looked up the way the dynamic loader would
// for the common cases.
func CheckPALLibrary(library string) Result {
	const name = "PAL library"
	library = strings.TrimSpace(library)
	if library == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if strings.ContainsRune(library, '/') {
		return checkLibraryFile(name, library)
	}
	for _, dir := range searchDirs() {
		candidate := filepath.Join(dir, library)
		if _, err := os.Stat(candidate); err == nil {
			return checkLibraryFile(name, candidate)
		}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found in LD_LIBRARY_PATH or system library directories)", library)}
}

func checkLibraryFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

func searchDirs() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv("LD_LIBRARY_PATH")) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return append(dirs, libraryDirs...)
}

// CheckEndpoint probes the socket. A live daemon or a stale socket both pass;
// the detail says what a launch would do.
func CheckEndpoint(ctx context.Context, prober Prober, socket string) Result {
	const name = "Endpoint"
	liveness, err := prober.Probe(ctx, socket)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", socket, err)}
	}
	switch liveness {
	case endpoint.ArtifactAndLive:
		return Result{Name: name, Passed: true, Detail: socket + " (daemon already serving)"}
	case endpoint.ArtifactButUnresponsive:
		return Result{Name: name, Passed: true, Detail: socket + " (stale socket, will be reclaimed)"}
	default:
		return Result{Name: name, Passed: true, Detail: socket + " (free)"}
	}
}
