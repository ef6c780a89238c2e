package engine

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalKind classifies one OS signal translated onto the main loop's
// signal channel (§5: "a self-pipe or equivalent translates SIGCHLD,
// SIGTERM, SIGHUP, SIGINT, SIGPWR into main-loop events").
type SignalKind int

const (
	SigChild SignalKind = iota
	SigShutdown
	SigReload
	SigCtrlAltDel
	SigPower
)

// Signals starts the OS signal->channel translation and returns the
// channel Run selects on. This is the same self-pipe-equivalent idiom as
// internal/cli/signals.go's SignalHandler, generalized to classify five
// signals instead of two and to hand a value (not just a wakeup) across
// the boundary, since the main loop needs to know which signal fired.
//
// Kind assignment: SIGCHLD drives a reap pass; SIGTERM begins the
// quiesce/shutdown sequence (§4.7); SIGHUP emits a synthetic "reload"
// event for subscribers (on-disk job-file re-reading is out of scope,
// §1 Non-goals); SIGINT emits "control-alt-delete" and SIGPWR emits
// "power-status-changed", matching upstart's own keystroke/power-event
// semantics.
func Signals() <-chan SignalKind {
	raw := make(chan os.Signal, 8)
	signal.Notify(raw,
		syscall.SIGCHLD,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGPWR,
	)

	out := make(chan SignalKind, 8)
	go func() {
		for sig := range raw {
			switch sig {
			case syscall.SIGCHLD:
				out <- SigChild
			case syscall.SIGTERM:
				out <- SigShutdown
			case syscall.SIGHUP:
				out <- SigReload
			case syscall.SIGINT:
				out <- SigCtrlAltDel
			case syscall.SIGPWR:
				out <- SigPower
			}
		}
	}()
	return out
}

// HandleSignal reacts to one classified signal. now is the caller's
// current unix-seconds clock, threaded through rather than read here so
// tests can drive it deterministically.
func (e *Engine) HandleSignal(kind SignalKind, now int64) {
	switch kind {
	case SigChild:
		e.ReapAll(now)
	case SigShutdown:
		e.BeginQuiesce(now)
	case SigReload:
		e.Queue.Emit("reload", nil, nil)
		e.RunPending()
	case SigCtrlAltDel:
		e.Queue.Emit("control-alt-delete", nil, nil)
		e.RunPending()
	case SigPower:
		e.Queue.Emit("power-status-changed", nil, nil)
		e.RunPending()
	}
}
