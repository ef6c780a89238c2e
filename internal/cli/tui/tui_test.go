//go:build linux

package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubports/upstart/internal/wire"
)

func TestUpdateJobStatusTracksLatestByName(t *testing.T) {
	m := NewModel()

	_, _ = m.Update(JobStatusMsg{ID: 1, Name: "web", Goal: wire.GoalStart, State: wire.StateStarting})
	_, _ = m.Update(JobStatusMsg{ID: 1, Name: "web", Goal: wire.GoalStart, State: wire.StateRunning})

	require.Contains(t, m.Jobs, "web")
	assert.Equal(t, uint32(wire.StateRunning), m.Jobs["web"].State)
}

func TestUpdateEventAppendsLogLine(t *testing.T) {
	m := NewModel()

	_, _ = m.Update(EventMsg{ID: 7, Name: "go", Args: []string{"a"}})
	_, _ = m.Update(EventFinishedMsg{ID: 7, Name: "go", Failed: true})

	require.Len(t, m.EventLog, 2)
	assert.Contains(t, m.EventLog[0], "go")
	assert.Contains(t, m.EventLog[1], "failed")
}

func TestUpdateLogRespectsLimit(t *testing.T) {
	m := NewModel()
	m.LogLimit = 2

	_, _ = m.Update(EventMsg{ID: 1, Name: "a"})
	_, _ = m.Update(EventMsg{ID: 2, Name: "b"})
	_, _ = m.Update(EventMsg{ID: 3, Name: "c"})

	require.Len(t, m.EventLog, 2)
	assert.Contains(t, m.EventLog[0], "b")
	assert.Contains(t, m.EventLog[1], "c")
}

func TestUpdateKeyQuitsOnQ(t *testing.T) {
	m := NewModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
}

func TestUpdateErrMsgQuitsAndRecordsError(t *testing.T) {
	m := NewModel()

	_, cmd := m.Update(ErrMsg{Err: assert.AnError})

	assert.True(t, m.Quitting)
	assert.Equal(t, assert.AnError, m.Err)
	require.NotNil(t, cmd)
}

func TestBridgeConvertTranslatesKnownMessages(t *testing.T) {
	b := &Bridge{}

	got := b.convert(&wire.JobStatus{ID: 3, Name: "web", Goal: wire.GoalStart, State: wire.StateRunning})
	assert.Equal(t, JobStatusMsg{ID: 3, Name: "web", Goal: wire.GoalStart, State: wire.StateRunning}, got)

	got = b.convert(&wire.Event{ID: 9, Name: "go", Args: []string{"x"}})
	assert.Equal(t, EventMsg{ID: 9, Name: "go", Args: []string{"x"}}, got)

	got = b.convert(&wire.EventFinished{ID: 9, Name: "go", Failed: false})
	assert.Equal(t, EventFinishedMsg{ID: 9, Name: "go", Failed: false}, got)
}

func TestBridgeConvertDropsUnknownMessages(t *testing.T) {
	b := &Bridge{}

	assert.Nil(t, b.convert(&wire.JobUnknown{Name: "ghost"}))
}

func TestStateWordAndGoalWord(t *testing.T) {
	assert.Equal(t, "running", stateWord(wire.StateRunning))
	assert.Equal(t, "unknown", stateWord(999))
	assert.Equal(t, "start", goalWord(wire.GoalStart))
	assert.Equal(t, "stop", goalWord(wire.GoalStop))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "01:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
