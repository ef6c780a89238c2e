package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		}

	case TickMsg:
		return m, tickCmd()

	case JobStatusMsg:
		m.Jobs[msg.Name] = &JobState{ID: msg.ID, Name: msg.Name, Goal: msg.Goal, State: msg.State}

	case EventMsg:
		m.appendLog(fmt.Sprintf("→ event %d %s %v", msg.ID, msg.Name, msg.Args))

	case EventFinishedMsg:
		status := "ok"
		if msg.Failed {
			status = "failed"
		}
		m.appendLog(fmt.Sprintf("✓ event %d %s finished (%s)", msg.ID, msg.Name, status))

	case ErrMsg:
		m.Err = msg.Err
		m.Quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) appendLog(line string) {
	m.EventLog = append(m.EventLog, line)
	if len(m.EventLog) > m.LogLimit {
		m.EventLog = m.EventLog[len(m.EventLog)-m.LogLimit:]
	}
}
