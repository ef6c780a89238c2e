package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// JobState tracks one job instance's last-known status in the TUI.
type JobState struct {
	ID    uint32
	Name  string
	Goal  uint32
	State uint32
}

// Model is the bubbletea model for `initctl monitor`: a live view of
// job-status and event notifications streamed from a subscribed
// control-socket client.
type Model struct {
	Styles Styles

	Jobs      map[string]*JobState // keyed by job name
	EventLog  []string
	LogLimit  int
	StartTime time.Time
	Width     int
	Height    int

	Quitting bool
	Err      error
}

// NewModel creates a new monitor TUI model.
func NewModel() *Model {
	return &Model{
		Styles:    DefaultStyles(),
		Jobs:      make(map[string]*JobState),
		LogLimit:  500,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// TickMsg is sent every second to refresh the elapsed-time header.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// JobStatusMsg carries one unsolicited wire.JobStatus notification.
type JobStatusMsg struct {
	ID    uint32
	Name  string
	Goal  uint32
	State uint32
}

// EventMsg carries one unsolicited wire.Event notification.
type EventMsg struct {
	ID   uint32
	Name string
	Args []string
}

// EventFinishedMsg carries one unsolicited wire.EventFinished notification.
type EventFinishedMsg struct {
	ID     uint32
	Name   string
	Failed bool
}

// ErrMsg carries an error from the subscription read loop (usually the
// connection closing), which ends the program.
type ErrMsg struct{ Err error }
