// Package testsupport holds fixtures shared by the daemon's package tests:
// short socket paths, listeners that skip in restricted sandboxes, and a
// config builder rooted in a throwaway directory.
package testsupport
