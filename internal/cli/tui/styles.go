package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the monitor TUI.
type Styles struct {
	Title lipgloss.Style
	Timer lipgloss.Style

	JobRunning lipgloss.Style
	JobWaiting lipgloss.Style
	JobKilled  lipgloss.Style
	JobOther   lipgloss.Style
	JobName    lipgloss.Style

	LogTitle lipgloss.Style
	LogLine  lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	ErrStyle lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		JobRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		JobWaiting: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		JobKilled:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		JobOther:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		JobName:    lipgloss.NewStyle().Bold(true),

		LogTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		LogLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		ErrStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// IconRunning, IconWaiting, IconKilled are the glyphs job rows render
// with, matching initctl's own plain-text state symbols.
const (
	IconRunning = "●"
	IconWaiting = "○"
	IconKilled  = "✗"
)
