// Command occlum_exec_server runs the Occlum exec daemon and manages a
// running instance.
//
// Invoked without a subcommand it becomes the daemon: it exits at once with
// "server stared" when another instance already answers on the socket,
// and otherwise serves until stopped. The status, stop and config
// subcommands talk to a running daemon or inspect configuration.
package main
