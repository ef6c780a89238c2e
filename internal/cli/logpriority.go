//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogPriorityCmd creates the 'log-priority' command, adjusting the
// daemon's log filter level (LogPriority, §C.1). The daemon never
// replies to this message, so the command returns as soon as the
// request is sent.
func NewLogPriorityCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log-priority <level>",
		Short: "Set the daemon's minimum log priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var level uint32
			if _, err := fmt.Sscanf(args[0], "%d", &level); err != nil {
				return fmt.Errorf("invalid priority %q: %w", args[0], err)
			}

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			return c.SetLogPriority(level)
		},
	}

	return cmd
}
