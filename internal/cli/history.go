//go:build linux

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the 'history' command, querying the daemon's
// event/job-outcome journal through EventHistory (§C.3).
func NewHistoryCmd(a *App) *cobra.Command {
	var limit uint32

	cmd := &cobra.Command{
		Use:   "history [name-glob]",
		Short: "Show past events recorded in the daemon's journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var glob string
			hasGlob := len(args) > 0
			if hasGlob {
				glob = args[0]
			}

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			events, err := c.EventHistory(glob, hasGlob, limit)
			if err != nil {
				return err
			}

			for _, ev := range events {
				line := fmt.Sprintf("%d %s", ev.ID, ev.Name)
				if len(ev.Args) > 0 {
					line += " " + strings.Join(ev.Args, " ")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().Uint32Var(&limit, "limit", 0, "Maximum number of entries to return (0 = unbounded)")

	return cmd
}
