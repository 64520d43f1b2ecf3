package main

import (
	"github.com/spf13/cobra"

	"occlum-exec/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string
	var logLevel string
	var logFormat string
	var development bool

	ctx := newCommandContext(&socketFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "occlum_exec_server",
		Short:         "Occlum exec daemon",
		Long:          "Runs the Occlum exec daemon: one enclave per socket, kept alive while the server accepts requests.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			_, err = daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				Argv0:       ctx.argv0(),
				LogLevel:    logLevel,
				LogFormat:   logFormat,
				Development: development,
				Stdout:      cmd.OutOrStdout(),
			})
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Path to the daemon socket (default: derived from the executable path)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Daemon log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Daemon log format (auto, console, json)")
	rootCmd.Flags().BoolVar(&development, "dev", false, "Include source locations in daemon logs")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newStopCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
