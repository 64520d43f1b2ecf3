// Package endpoint owns the daemon's Unix socket path: where it lives, whether
// a server already answers on it, and how a dead server's leftover is cleared
// before a fresh bind.
package endpoint
