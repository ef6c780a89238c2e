package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ubports/upstart/internal/wire"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Quitting {
		if m.Err != nil {
			return m.Styles.ErrStyle.Render(fmt.Sprintf("monitor: %v\n", m.Err))
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderJobs())
	b.WriteString("\n")
	b.WriteString(m.renderLog())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	return fmt.Sprintf("%s  %s",
		m.Styles.Title.Render("upstart monitor"),
		m.Styles.Timer.Render(fmt.Sprintf("[%s]", formatDuration(elapsed))),
	)
}

func (m *Model) renderJobs() string {
	if len(m.Jobs) == 0 {
		return "  (no job status received yet)\n"
	}

	names := make([]string, 0, len(m.Jobs))
	for name := range m.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(m.renderJob(m.Jobs[name]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderJob(j *JobState) string {
	icon, style := jobIcon(j.State), m.jobStyle(j.State)
	name := m.Styles.JobName.Render(j.Name)
	return fmt.Sprintf("  %s %s %s/%s", style.Render(icon), name, goalWord(j.Goal), stateWord(j.State))
}

func (m *Model) jobStyle(state uint32) lipgloss.Style {
	switch state {
	case wire.StateRunning:
		return m.Styles.JobRunning
	case wire.StateWaiting:
		return m.Styles.JobWaiting
	case wire.StateKilled:
		return m.Styles.JobKilled
	default:
		return m.Styles.JobOther
	}
}

func jobIcon(state uint32) string {
	switch state {
	case wire.StateRunning:
		return IconRunning
	case wire.StateWaiting:
		return IconWaiting
	case wire.StateKilled:
		return IconKilled
	default:
		return IconWaiting
	}
}

func goalWord(goal uint32) string {
	if goal == wire.GoalStart {
		return "start"
	}
	return "stop"
}

func stateWord(state uint32) string {
	switch state {
	case wire.StateWaiting:
		return "waiting"
	case wire.StateStarting:
		return "starting"
	case wire.StatePreStart:
		return "pre-start"
	case wire.StateSpawned:
		return "spawned"
	case wire.StatePostStart:
		return "post-start"
	case wire.StateRunning:
		return "running"
	case wire.StatePreStop:
		return "pre-stop"
	case wire.StateStopping:
		return "stopping"
	case wire.StateKilled:
		return "killed"
	case wire.StatePostStop:
		return "post-stop"
	default:
		return "unknown"
	}
}

func (m *Model) renderLog() string {
	var b strings.Builder
	b.WriteString(m.Styles.LogTitle.Render(" events "))
	b.WriteString("\n")

	lines := m.EventLog
	if max := 10; len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	if len(lines) == 0 {
		b.WriteString("  (no events yet)\n")
	}
	for _, line := range lines {
		b.WriteString(m.Styles.LogLine.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	key := m.Styles.FooterKey.Render("q")
	return m.Styles.Footer.Render(fmt.Sprintf("Press %s to quit", key))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	d -= min * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, min, s)
}
