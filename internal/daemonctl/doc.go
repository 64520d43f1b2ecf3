// Package daemonctl is the client side of daemon management used by the
// CLI: status lookups, stop requests, and the forced-kill fallback driven by
// the daemon's pid file.
package daemonctl
