// Package daemon coordinates the exec server's single lifetime.
//
// The Coordinator decides whether this process should serve at all (another
// live instance wins), clears a dead instance's socket, binds, brings the
// enclave up, serves until asked to stop, and tears everything down in a
// fixed order. Each step is a State; states only move forward.
//
// Keep sequencing here. Socket mechanics live in endpoint, the enclave
// bracket in enclave, and the RPC surface in ipc.
package daemon
