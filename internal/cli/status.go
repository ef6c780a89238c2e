//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the 'status' command for one job's detailed
// status, the bracket JobQuery/JobStatus/JobProcess.../JobStatusEnd
// collapses into a client.JobInfo (§6).
func NewStatusCmd(a *App) *cobra.Command {
	var id uint32

	cmd := &cobra.Command{
		Use:   "status <job>",
		Short: "Show one job's detailed status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			info, err := c.QueryJob(name, id)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatJobLine(info))
			for slot, pid := range info.PIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: pid %d\n", processSlotName(slot), pid)
			}
			return nil
		},
	}

	cmd.Flags().Uint32Var(&id, "id", 0, "Instance id, for template jobs")

	return cmd
}
