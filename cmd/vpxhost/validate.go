package main

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/internal/pluginpack"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	var hostVersion string

	cmd := &cobra.Command{
		Use:   "validate <package-dir>...",
		Short: "Validate plugin package manifests",
		Long: `Check that each directory holds a valid manifest.yaml, that its wasm
file exists and that the package supports the host version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, hostVersion, args)
		},
	}

	cmd.Flags().StringVar(&hostVersion, "host-version", emulator.Version, "VPX version to check min_host_version against")

	return cmd
}

// runValidate executes the validate command.
func runValidate(cmd *cobra.Command, hostVersion string, dirs []string) error {
	host, err := semver.NewVersion(hostVersion)
	if err != nil {
		return fmt.Errorf("invalid host version %q: %w", hostVersion, err)
	}

	failed := 0
	for _, dir := range dirs {
		m, err := pluginpack.ParseManifest(dir)
		if err == nil && !m.SupportsHost(host) {
			err = &pluginpack.IncompatibleHostError{
				PackageID:      m.ID,
				MinHostVersion: m.MinHostVersion,
				HostVersion:    host.String(),
			}
		}
		if err != nil {
			failed++
			cmd.Printf("FAIL %s: %v\n", dir, err)
			continue
		}
		cmd.Printf("ok   %s: %s %s\n", dir, m.ID, m.Version)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d packages invalid", failed, len(dirs))
	}
	return nil
}
