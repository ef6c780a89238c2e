//go:build linux

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ubports/upstart/internal/wire"
)

// Bridge pumps a client's unsolicited notification stream into a
// bubbletea program, converting each wire.Message into the Msg type
// Update knows how to apply.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge for the given program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Send converts one notification frame and forwards it to the program.
// Unrecognized message types are dropped rather than treated as errors,
// since a future wire extension shouldn't crash an older monitor.
func (b *Bridge) Send(msg wire.Message) {
	converted := b.convert(msg)
	if converted != nil {
		b.program.Send(converted)
	}
}

func (b *Bridge) convert(msg wire.Message) tea.Msg {
	switch m := msg.(type) {
	case *wire.JobStatus:
		return JobStatusMsg{ID: m.ID, Name: m.Name, Goal: m.Goal, State: m.State}
	case *wire.Event:
		return EventMsg{ID: m.ID, Name: m.Name, Args: m.Args}
	case *wire.EventFinished:
		return EventFinishedMsg{ID: m.ID, Name: m.Name, Failed: m.Failed}
	default:
		return nil
	}
}

// SendErr reports a read-loop error (typically the connection closing)
// to the program, ending it.
func (b *Bridge) SendErr(err error) {
	b.program.Send(ErrMsg{Err: err})
}
