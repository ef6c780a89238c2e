//go:build linux

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ubports/upstart/internal/cli/tui"
)

// NewMonitorCmd creates the 'monitor' command: a bubbletea TUI streaming
// unsolicited JobStatus/Event/EventFinished notifications after
// subscribing to both streams (SubscribeJobs/SubscribeEvents, §6).
func NewMonitorCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch job status and event activity live",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.SubscribeJobs(); err != nil {
				return err
			}
			if err := c.SubscribeEvents(); err != nil {
				return err
			}

			model := tui.NewModel()
			program := tea.NewProgram(model)
			bridge := tui.NewBridge(program)

			// bubbletea's raw mode swallows Ctrl-C as a key message
			// (handled by Update), but an external SIGTERM still
			// reaches the process directly and would otherwise leave
			// the terminal in raw mode; route it through program.Quit
			// so the TUI always restores the terminal on exit.
			_, cancel := context.WithCancel(cmd.Context())
			sh := NewSignalHandler(cancel)
			sh.OnShutdown(program.Quit)
			sh.Start()
			defer sh.Stop()

			go func() {
				for {
					msg, err := c.Next()
					if err != nil {
						bridge.SendErr(err)
						return
					}
					bridge.Send(msg)
				}
			}()

			_, err = program.Run()
			return err
		},
	}

	return cmd
}
