package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/ipc"
	"occlum-exec/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the host is ready to run the daemon",
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
			prober := endpoint.NewProber(func(path string) (endpoint.Checker, error) {
				return ipc.Dial(path)
			}, cfg.ProbeTimeout(), nil)

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			results := preflight.RunAll(cmd.Context(), cfg, socket, prober)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(stdout, renderCheckLine(r.Name, kind, r.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
