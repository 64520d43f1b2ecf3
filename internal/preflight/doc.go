// Package preflight checks whether the host is ready to run the exec daemon
// before any enclave is created.
//
// The checks back the "occlum_exec_server check" command. Each one reports a
// pass or a failure with a short operator-facing detail; none of them create
// sockets, load the PAL, or touch a running daemon beyond a liveness probe.
package preflight
