package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"occlum-exec/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			status, err := daemonctl.Status(cmd.Context(), socket)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, renderNotRunning(socket, shouldColorize(stdout)))
				return nil
			}
			if err != nil {
				return fmt.Errorf("query daemon status: %w", err)
			}
			fmt.Fprintln(stdout, renderStatus(status, shouldColorize(stdout)))
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon and release its enclave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), socket, cfg.StopTimeout(), force)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stopping daemon...")
			} else if !result.ForcedKill {
				fmt.Fprintln(stdout, "Stop already in progress")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Kill the daemon if it has not exited after the stop timeout")
	return cmd
}
