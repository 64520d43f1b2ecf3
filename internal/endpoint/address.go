package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ServerFileMarker is the daemon binary name inside its invocation path.
	ServerFileMarker = "occlum_exec_server"
	// SockFileMarker replaces ServerFileMarker to form the socket path.
	SockFileMarker = "occlum_exec.sock"
)

// ErrNoMarker means the invocation path cannot be turned into a socket path.
var ErrNoMarker = errors.New("invocation path does not contain " + ServerFileMarker)

// DeriveAddress computes the socket path from the daemon's invocation path by
// substituting every ServerFileMarker with SockFileMarker. Client tooling
// locates the socket with the same rule.
func DeriveAddress(argv0 string) (string, error) {
	if !strings.Contains(argv0, ServerFileMarker) {
		return "", fmt.Errorf("derive socket from %q: %w", argv0, ErrNoMarker)
	}
	return strings.ReplaceAll(argv0, ServerFileMarker, SockFileMarker), nil
}

// ResolveAddress prefers an explicit socket path and falls back to
// DeriveAddress.
func ResolveAddress(explicit, argv0 string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	return DeriveAddress(argv0)
}
