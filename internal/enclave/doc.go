// Package enclave brackets the Occlum enclave lifetime around the daemon's
// serving window.
//
// Bracket enforces the exactly-once acquire/release pairing on top of a
// Runtime. PAL is the production Runtime: it loads libocclum-pal at run time
// and calls occlum_pal_init / occlum_pal_destroy. Everything that crosses the
// native boundary lives in pal_linux.go.
package enclave
