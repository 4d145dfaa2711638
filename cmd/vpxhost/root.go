package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the vpxhost CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpxhost",
		Short: "vpxhost - a headless host for VPX plugins",
		Long: `vpxhost emulates the VPX plugin host: its message bus, the GetAPI
handshake and the table, view, option and notification state. It runs
builtin or WebAssembly plugins against scripted scenarios.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vpxhost version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("vpxhost %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
