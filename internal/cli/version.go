//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command. Without --remote it prints
// this binary's own build version; with --remote it also queries the
// connected daemon's protocol version (wire.VersionQuery).
func NewVersionCmd(app *App) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, commit, date := app.version, app.commit, app.date
			if version == "" {
				version = "dev"
			}
			if commit == "" {
				commit = "unknown"
			}
			if date == "" {
				date = "unknown"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initctl version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)

			if !remote {
				return nil
			}

			c, err := app.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			daemonVersion, err := c.Version()
			if err != nil {
				return fmt.Errorf("querying daemon version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon: %s\n", daemonVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also query the connected daemon's protocol version")

	return cmd
}
