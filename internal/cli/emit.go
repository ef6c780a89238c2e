//go:build linux

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewEmitCmd creates the 'emit' command, sending EventEmit and waiting
// for the matching Event/EventFinished pair (§4.5, §6).
func NewEmitCmd(a *App) *cobra.Command {
	var envPairs []string

	cmd := &cobra.Command{
		Use:   "emit <event> [arg...]",
		Short: "Emit an event and wait for it to finish propagating",
		Long: `Emit an event, blocking until every job it unblocks has started (or
the emission is reported failed because one of them failed to start).

Positional arguments after the event name become the event's Args; use
--env KEY=VALUE (repeatable) to set its Env.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			eventArgs := args[1:]

			if bad := splitEnv(envPairs); len(bad) > 0 {
				return fmt.Errorf("--env values must be KEY=VALUE, got: %s", strings.Join(bad, ", "))
			}

			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.EmitEvent(name, eventArgs, envPairs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "event %q (%d) finished, failed=%v\n", name, result.ID, result.Failed)
			if result.Failed {
				return fmt.Errorf("event %q caused a job to fail to start", name)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "KEY=VALUE pair to add to the event's environment (repeatable)")

	return cmd
}

// splitEnv returns the entries of pairs that contain no '=' (not
// KEY=VALUE); the emit command uses it to reject bad --env values.
func splitEnv(pairs []string) (bad []string) {
	for _, p := range pairs {
		if !strings.Contains(p, "=") {
			bad = append(bad, p)
		}
	}
	return bad
}
