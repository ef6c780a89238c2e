//go:build linux

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ubports/upstart/internal/client"
)

// dumpStateSnapshot is the introspection-only document 'dump-state'
// renders, combining three independent queries the protocol already
// exposes (Version, ListJobs, EventHistory) into one document. It is
// never read back in — the on-disk job-config format stays an external
// collaborator per §1 Non-goals — so a human-readable format the
// protocol doesn't otherwise use is appropriate here.
type dumpStateSnapshot struct {
	DaemonVersion string           `yaml:"daemon_version"`
	Jobs          []dumpStateJob   `yaml:"jobs"`
	RecentEvents  []dumpStateEvent `yaml:"recent_events"`
}

type dumpStateJob struct {
	ID    uint32           `yaml:"id,omitempty"`
	Name  string           `yaml:"name"`
	Goal  string           `yaml:"goal"`
	State string           `yaml:"state"`
	PIDs  map[string]int32 `yaml:"pids,omitempty"`
}

type dumpStateEvent struct {
	ID   uint32   `yaml:"id"`
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
}

// NewDumpStateCmd creates the 'dump-state' command: a point-in-time
// YAML snapshot of daemon version, installed job instances and recent
// event history, for debugging and support bundles (SPEC_FULL §B).
func NewDumpStateCmd(a *App) *cobra.Command {
	var eventLimit uint32

	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Print a YAML snapshot of daemon version, jobs and recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			snap, err := buildSnapshot(c, eventLimit)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(snap)
		},
	}

	cmd.Flags().Uint32Var(&eventLimit, "event-limit", 50, "Maximum number of recent events to include (0 = unbounded)")

	return cmd
}

func buildSnapshot(c *client.Client, eventLimit uint32) (*dumpStateSnapshot, error) {
	version, err := c.Version()
	if err != nil {
		return nil, fmt.Errorf("querying daemon version: %w", err)
	}

	jobs, err := c.ListJobs("")
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	events, err := c.EventHistory("", false, eventLimit)
	if err != nil {
		return nil, fmt.Errorf("reading event history: %w", err)
	}

	snap := &dumpStateSnapshot{DaemonVersion: version}
	for _, j := range jobs {
		snap.Jobs = append(snap.Jobs, dumpStateJob{
			ID:    j.ID,
			Name:  j.Name,
			Goal:  goalName(j.Goal),
			State: stateName(j.State),
			PIDs:  pidsBySlotName(j.PIDs),
		})
	}
	for _, ev := range events {
		snap.RecentEvents = append(snap.RecentEvents, dumpStateEvent{ID: ev.ID, Name: ev.Name, Args: ev.Args})
	}
	return snap, nil
}

func pidsBySlotName(pids map[uint32]int32) map[string]int32 {
	if len(pids) == 0 {
		return nil
	}
	out := make(map[string]int32, len(pids))
	for slot, pid := range pids {
		out[processSlotName(slot)] = pid
	}
	return out
}
