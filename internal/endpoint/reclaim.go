package endpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
)

type artifactKind int

const (
	artifactNone artifactKind = iota
	artifactSocket
	// artifactDanglingLink is a symlink whose target is gone. Nothing can
	// answer behind it, so it is treated like a stale socket.
	artifactDanglingLink
	artifactOther
)

// inspectArtifact reports what occupies path. A symlink is judged by its
// target, so a link to a socket counts as a socket.
func inspectArtifact(path string) (artifactKind, fs.FileMode, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return artifactNone, 0, nil
		}
		return artifactNone, 0, err
	}
	if info.Mode().Type() == fs.ModeSymlink {
		target, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return artifactDanglingLink, fs.ModeSymlink, nil
			}
			return artifactNone, 0, err
		}
		info = target
	}
	if info.Mode().Type() != fs.ModeSocket {
		return artifactOther, info.Mode().Type(), nil
	}
	return artifactSocket, fs.ModeSocket, nil
}

// Reclaim removes a socket artifact left behind by a dead server. A path that
// vanished in the meantime counts as reclaimed. For a symlink only the link
// is removed.
func Reclaim(path string) error {
	kind, _, err := inspectArtifact(path)
	if err != nil {
		return fmt.Errorf("reclaim %s: %w", path, err)
	}
	switch kind {
	case artifactNone:
		return nil
	case artifactOther:
		return fmt.Errorf("reclaim %s: %w", path, ErrNotSocket)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reclaim %s: %w", path, err)
	}
	return nil
}

// Listen binds a Unix stream socket at path. The socket file is unlinked when
// the listener closes.
func Listen(path string) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return listener, nil
}
