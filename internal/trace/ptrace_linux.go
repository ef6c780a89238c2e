//go:build linux

package trace

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

const ptraceEventFork = unix.PTRACE_EVENT_FORK
const ptraceEventVFork = unix.PTRACE_EVENT_VFORK
const ptraceEventExec = unix.PTRACE_EVENT_EXEC

// traceOptions is installed on the tracee the first time we see it stop,
// so that later forks and execs are reported as distinguishable ptrace
// stops rather than ordinary SIGTRAP/SIGCHLD delivery.
const traceOptions = unix.PTRACE_O_TRACEFORK | unix.PTRACE_O_TRACEVFORK | unix.PTRACE_O_TRACEEXEC

// Attach attaches to an already-running pid for tracing and waits for its
// initial stop. Nothing in this repository calls it: OSSpawner starts a
// traced child (expectation `daemon` or `fork`, §4.4.4) with
// SysProcAttr.Ptrace instead.
func Attach(pid int) error {
	if err := unix.PtraceAttach(pid); err != nil {
		return fmt.Errorf("ptrace attach %d: %w", pid, err)
	}
	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return fmt.Errorf("ptrace attach %d: waiting for initial stop: %w", pid, err)
	}
	return nil
}

// SetOptions installs traceOptions on pid, enabling fork/vfork/exec
// notifications.
func SetOptions(pid int) error {
	if err := unix.PtraceSetOptions(pid, traceOptions); err != nil {
		return fmt.Errorf("ptrace setoptions %d: %w", pid, err)
	}
	return nil
}

// Continue resumes pid, optionally delivering signal sig (0 for none).
func Continue(pid int, sig int) error {
	if err := unix.PtraceCont(pid, sig); err != nil {
		return fmt.Errorf("ptrace cont %d: %w", pid, err)
	}
	return nil
}

// Detach stops tracing pid and lets it run free.
func Detach(pid int) error {
	if err := unix.PtraceDetach(pid); err != nil {
		return fmt.Errorf("ptrace detach %d: %w", pid, err)
	}
	return nil
}

// EventMsg reads the value set by the most recent PTRACE_EVENT_FORK-style
// stop: the new child's pid.
func EventMsg(pid int) (int, error) {
	msg, err := unix.PtraceGetEventMsg(pid)
	if err != nil {
		return 0, fmt.Errorf("ptrace geteventmsg %d: %w", pid, err)
	}
	return int(msg), nil
}

// Decode classifies a wait(2) status for pid into an EventKind, per
// §4.4.4: a PTRACE_EVENT_FORK/VFORK stop, a PTRACE_EVENT_EXEC stop, a
// plain SIGSTOP (the child's self-stop convention after fork), or
// anything else.
func Decode(ws syscall.WaitStatus) (EventKind, bool) {
	if !ws.Stopped() {
		return EvOther, false
	}
	sig := ws.StopSignal()
	if sig == syscall.SIGTRAP {
		switch ws.TrapCause() {
		case ptraceEventFork, ptraceEventVFork:
			return EvFork, true
		case ptraceEventExec:
			return EvExec, true
		default:
			return EvAttachTrap, true
		}
	}
	if sig == syscall.SIGSTOP {
		return EvChildStopped, true
	}
	return EvOther, true
}
