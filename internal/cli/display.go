//go:build linux

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/ubports/upstart/internal/client"
	"github.com/ubports/upstart/internal/wire"
)

// useColor reports whether stdout is a terminal, the same isatty check
// choo's run.go uses to decide whether to start its bubbletea TUI.
func useColor() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type stateSymbol string

const (
	symbolRunning  stateSymbol = "●"
	symbolWaiting  stateSymbol = "○"
	symbolKilled   stateSymbol = "✗"
	symbolStopping stateSymbol = "→"
	symbolStarting stateSymbol = "◐"
)

// ansi color codes; initctl's output is plain lines rather than a full
// TUI, so this skips pulling lipgloss in just for a handful of colors.
const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

func stateSymbolFor(state uint32) stateSymbol {
	switch state {
	case wire.StateRunning:
		return symbolRunning
	case wire.StateWaiting:
		return symbolWaiting
	case wire.StateKilled:
		return symbolKilled
	case wire.StateStopping, wire.StatePreStop, wire.StatePostStop:
		return symbolStopping
	default:
		return symbolStarting
	}
}

func stateColorFor(state uint32) string {
	switch state {
	case wire.StateRunning:
		return ansiGreen
	case wire.StateWaiting:
		return ansiYellow
	case wire.StateKilled:
		return ansiRed
	default:
		return ansiYellow
	}
}

func stateName(state uint32) string {
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

func goalName(goal uint32) string {
	if goal == wire.GoalStart {
		return "start"
	}
	return "stop"
}

func processSlotName(slot uint32) string {
	switch slot {
	case wire.ProcessMain:
		return "main"
	case wire.ProcessPreStart:
		return "pre-start"
	case wire.ProcessPostStart:
		return "post-start"
	case wire.ProcessPreStop:
		return "pre-stop"
	case wire.ProcessPostStop:
		return "post-stop"
	default:
		return "?"
	}
}

// formatJobLine renders one job's summary line, the form list and
// status share: "● name (id) start/running".
func formatJobLine(info *client.JobInfo) string {
	symbol := stateSymbolFor(info.State)
	line := fmt.Sprintf("%s %s", symbol, info.Name)
	if info.ID != 0 {
		line += fmt.Sprintf(" (%d)", info.ID)
	}
	line += fmt.Sprintf(" %s/%s", goalName(info.Goal), stateName(info.State))
	if useColor() {
		line = stateColorFor(info.State) + line + ansiReset
	}
	return line
}
