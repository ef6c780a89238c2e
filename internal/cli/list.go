//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCmd creates the 'list' command for listing job instances.
func NewListCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List job instances",
		Long: `List every job instance known to the daemon (JobList, §6).

An optional glob pattern restricts the listing to configs whose name
matches it; with no pattern every instance is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			jobs, err := c.ListJobs(pattern)
			if err != nil {
				return err
			}

			for _, info := range jobs {
				fmt.Fprintln(cmd.OutOrStdout(), formatJobLine(info))
			}
			return nil
		},
	}

	return cmd
}
