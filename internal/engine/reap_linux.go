//go:build linux

package engine

import (
	"syscall"

	"github.com/ubports/upstart/internal/trace"
)

// osWaiter is the linux ChildWaiter: a thin wrapper over wait4(-1,
// WNOHANG) that classifies the result the way §4.4.3/§4.4.4 need.
type osWaiter struct{}

// NewOSWaiter returns the linux ChildWaiter used by cmd/upstart.
func NewOSWaiter() ChildWaiter { return osWaiter{} }

func (osWaiter) Wait() (WaitResult, bool) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
	if err != nil || pid <= 0 {
		return WaitResult{}, false
	}

	switch {
	case ws.Exited():
		return WaitResult{PID: pid, Exited: true, ExitCode: ws.ExitStatus()}, true
	case ws.Signaled():
		return WaitResult{PID: pid, Signaled: true, Signal: int(ws.Signal())}, true
	case ws.Stopped():
		kind, _ := trace.Decode(ws)
		wr := WaitResult{PID: pid, Stopped: true, Kind: kind}
		if kind == trace.EvFork {
			if childPID, err := trace.EventMsg(pid); err == nil {
				wr.ChildPID = childPID
			}
		}
		return wr, true
	default:
		// A continued (WIFCONTINUED) report carries no actionable state;
		// treat it like "nothing reapable" rather than looping forever.
		return WaitResult{}, false
	}
}

// osTraceOps is the linux TraceOps, delegating to internal/trace's ptrace
// wrappers.
type osTraceOps struct{}

// NewOSTraceOps returns the linux TraceOps used by cmd/upstart.
func NewOSTraceOps() TraceOps { return osTraceOps{} }

func (osTraceOps) SetOptions(pid int) error      { return trace.SetOptions(pid) }
func (osTraceOps) Continue(pid int, sig int) error { return trace.Continue(pid, sig) }
func (osTraceOps) Detach(pid int) error          { return trace.Detach(pid) }
