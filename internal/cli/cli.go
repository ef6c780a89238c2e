//go:build linux

// Package cli implements initctl, the command-line control client for
// the upstart daemon (SPEC_FULL §A.5), replacing choo's worktree/PR
// orchestration commands with upstart's job and event verbs wired
// through internal/client.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubports/upstart/internal/client"
	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/daemon"
)

// App represents the CLI application with all wired dependencies.
type App struct {
	rootCmd *cobra.Command

	// Target selection, shared by every subcommand through persistent
	// flags: --system talks to the fixed PID1Address, otherwise the
	// daemon's pid is read from --pid-file and the session's address
	// is derived from it (§6, the same derivation daemon.Config uses
	// for its own SocketName).
	system  bool
	pidFile string
	verbose bool

	cancel   context.CancelFunc
	shutdown chan struct{}

	version string
	commit  string
	date    string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		shutdown: make(chan struct{}),
	}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command.
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
}

// setupRootCmd configures the root Cobra command and its subcommands.
func (a *App) setupRootCmd() {
	defaultPIDFile := ""
	if cfg, err := daemon.DefaultConfig(); err == nil {
		defaultPIDFile = cfg.PIDFile
	}

	a.rootCmd = &cobra.Command{
		Use:   "initctl",
		Short: "Control the upstart job and event supervisor",
		Long: `initctl talks to a running upstart daemon over its abstract-namespace
control socket: start and stop jobs, list their status, emit events and
watch the daemon's job and event stream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	a.rootCmd.PersistentFlags().BoolVar(&a.system, "system", false, "Address the system (PID 1) instance instead of a session instance")
	a.rootCmd.PersistentFlags().StringVar(&a.pidFile, "pid-file", defaultPIDFile, "Path to the session daemon's PID file (ignored with --system)")

	a.rootCmd.AddCommand(
		NewVersionCmd(a),
		NewListCmd(a),
		NewStatusCmd(a),
		NewStartCmd(a),
		NewStopCmd(a),
		NewEmitCmd(a),
		NewHistoryCmd(a),
		NewLogPriorityCmd(a),
		NewShutdownCmd(a),
		NewMonitorCmd(a),
		NewDumpStateCmd(a),
	)
}

// target resolves the control-socket address this invocation should
// send to: the well-known PID1Address for --system, or the address
// derived from the pid recorded in --pid-file for a session instance.
func (a *App) target() (string, error) {
	if a.system {
		return control.PID1Address, nil
	}
	if a.pidFile == "" {
		return "", fmt.Errorf("no --pid-file given and no default could be determined; pass --system or --pid-file")
	}
	pid, err := daemon.ReadPID(a.pidFile)
	if err != nil {
		return "", fmt.Errorf("reading daemon pid from %s: %w", a.pidFile, err)
	}
	return control.ProcessAddress(pid), nil
}

// dial resolves the target address and opens a client bound to it. The
// returned client must be closed by the caller.
func (a *App) dial() (*client.Client, error) {
	to, err := a.target()
	if err != nil {
		return nil, err
	}
	c, err := client.Dial(to)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", to, err)
	}
	return c, nil
}
