//go:build linux

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/daemon"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg, err := daemon.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "upstart: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "upstart",
		Short:         "Event-driven service supervisor",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.System && !cmd.Flags().Changed("socket") {
				cfg.SocketName = control.PID1Address
			}
			d, err := daemon.New(cfg)
			if err != nil {
				return fmt.Errorf("initializing daemon: %w", err)
			}
			return d.Start(context.Background())
		},
	}

	root.Flags().BoolVar(&cfg.System, "system", false, "Run as the system (PID 1) instance, binding the well-known control address")
	root.Flags().StringVar(&cfg.SocketName, "socket", cfg.SocketName, "Abstract-namespace control-socket address")
	root.Flags().StringVar(&cfg.PIDFile, "pid-file", cfg.PIDFile, "Path to the daemon's PID file")
	root.Flags().StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Path to the event/job-outcome journal database")
	root.Flags().StringVar(&cfg.JobDir, "job-dir", cfg.JobDir, "Opaque job-configuration directory, passed through to the job loader")
	root.Flags().Int64Var(&cfg.QuiesceWait, "quiesce-wait", cfg.QuiesceWait, "Seconds to wait for jobs to stop during shutdown (not applied: the engine's fixed 5-second wait is used)")
	root.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose logging (not read by the daemon: logging is unchanged)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "upstart: %v\n", err)
		os.Exit(1)
	}
}
