//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStartCmd creates the 'start' command, setting a job's goal to
// start (JobStart, §6).
func NewStartCmd(a *App) *cobra.Command {
	var id uint32

	cmd := &cobra.Command{
		Use:   "start <job>",
		Short: "Start a job",
		Long: `Set a job's goal to start.

The job is resolved by name, or by --id when the name is a template
config that needs an instance id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			job, err := c.StartJob(name, id)
			if err != nil {
				return err
			}
			info, err := c.QueryJob(job.Name, job.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatJobLine(info))
			return nil
		},
	}

	cmd.Flags().Uint32Var(&id, "id", 0, "Instance id, for template jobs")

	return cmd
}

// NewStopCmd creates the 'stop' command, setting a job's goal to stop
// (JobStop, §6).
func NewStopCmd(a *App) *cobra.Command {
	var id uint32

	cmd := &cobra.Command{
		Use:   "stop <job>",
		Short: "Stop a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			job, err := c.StopJob(name, id)
			if err != nil {
				return err
			}
			// Stopping can run an instance all the way to destruction
			// before this reply even arrives, so a follow-up query
			// failing to find it is expected rather than an error.
			info, err := c.QueryJob(job.Name, job.ID)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "stopped %s (%d)\n", job.Name, job.ID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatJobLine(info))
			return nil
		},
	}

	cmd.Flags().Uint32Var(&id, "id", 0, "Instance id, for template jobs")

	return cmd
}
