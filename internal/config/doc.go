// Package config loads, normalizes, and validates exec daemon configuration.
//
// It supplies defaults, reads an optional TOML file, and honours the
// OCCLUM_INSTANCE_DIR and OCCLUM_LOG_LEVEL environment overrides that the
// enclave runtime has always consumed. Always obtain settings through this
// package so the daemon and the control commands agree on socket paths and
// timeouts.
package config
