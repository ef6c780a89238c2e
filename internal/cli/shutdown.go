//go:build linux

package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/daemon"
)

// NewShutdownCmd creates the 'shutdown' command. There is no wire
// message for this (§6's message table has none, and DESIGN.md records
// the decision): a session daemon is asked to quiesce the same way the
// real upstart is, by signalling its process directly. --system is
// refused since sending SIGTERM to PID 1 would shut down the whole
// machine rather than just upstart's session instance.
func NewShutdownCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Ask a session daemon to begin its quiesce sequence and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.system {
				return fmt.Errorf("shutdown does not support --system; signal PID 1's supervisor directly instead")
			}
			if a.pidFile == "" {
				return fmt.Errorf("no --pid-file given and no default could be determined")
			}

			pid, err := daemon.ReadPID(a.pidFile)
			if err != nil {
				return fmt.Errorf("reading daemon pid from %s: %w", a.pidFile, err)
			}
			if !daemon.IsProcessRunning(pid) {
				return fmt.Errorf("no daemon running at pid %d (stale pid file %s)", pid, a.pidFile)
			}

			if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
				return fmt.Errorf("signalling daemon pid %d: %w", pid, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sent SIGTERM to daemon pid %d (%s)\n", pid, control.ProcessAddress(pid))
			return nil
		},
	}

	return cmd
}
