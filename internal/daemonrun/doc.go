// Package daemonrun assembles the daemon process: logger, enclave binding,
// prober and coordinator, with SIGINT and SIGTERM bridged to a stop request.
package daemonrun
