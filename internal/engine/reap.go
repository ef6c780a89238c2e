package engine

import (
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/trace"
)

// WaitResult is one decoded wait-any-child report, produced by a
// ChildWaiter. Exactly one of Exited/Signaled/Stopped is true.
type WaitResult struct {
	PID int

	Exited   bool
	ExitCode int

	Signaled bool
	Signal   int

	// Stopped is true for a ptrace-stop (§4.4.4); Kind classifies it and
	// ChildPID carries the forked child's pid when Kind is EvFork.
	Stopped  bool
	Kind     trace.EventKind
	ChildPID int
}

// ChildWaiter performs one non-blocking wait-any-child call (the OS
// primitive behind §5's "reaping uses the non-blocking wait-any-child
// primitive repeatedly until no children are reapable"). ok is false
// once nothing is currently reapable.
type ChildWaiter interface {
	Wait() (WaitResult, bool)
}

// TraceOps is the OS-specific ptrace driver internal/trace's FSM needs:
// installing fork/exec notification options, resuming a stopped tracee,
// and detaching once tracing is no longer needed.
type TraceOps interface {
	SetOptions(pid int) error
	Continue(pid int, sig int) error
	Detach(pid int) error
}

type tracerState struct {
	job     *job.Job
	tracker *trace.Tracker
}

// TrackDaemon registers j's just-spawned, ptrace-stopped main process for
// fork tracking (§4.4.4), called by the spawn path once it knows the
// child is attached and waiting. forksNeeded is trace.ForksRequired's
// result for the job's expectation.
func (e *Engine) TrackDaemon(j *job.Job, pid, forksNeeded int) {
	if e.tracers == nil {
		e.tracers = make(map[int]*tracerState)
	}
	t := &trace.Tracker{State: trace.Normal, ForksNeeded: forksNeeded, PID: pid}
	e.tracers[pid] = &tracerState{job: j, tracker: t}
}

// ReapAll drains every currently reapable child via waiter, dispatching
// terminations into the state machine and ptrace stops into the fork
// tracker, then drains the event queue once per reaped child (§5:
// "a state transition triggered by a reap completes before the next
// reap is processed").
func (e *Engine) ReapAll(now int64) {
	for {
		wr, ok := e.waiter.Wait()
		if !ok {
			return
		}
		e.reapOne(wr, now)
	}
}

func (e *Engine) reapOne(wr WaitResult, now int64) {
	if wr.Stopped {
		e.handleTraceStop(wr)
		return
	}

	j, slot, ok := e.Registry.FindByPID(wr.PID)
	if !ok {
		return
	}
	if slot == job.Main {
		delete(e.tracers, wr.PID)
		e.killTimers.cancel(j)
	}
	e.Machine.Reap(j, slot, wr.ExitCode, wr.Signaled, now)
	e.notifyJobStatus(j)
	e.RunPending()
}

// handleTraceStop feeds one ptrace-stop into the tracker keyed by the
// pid it was delivered for, applies the resulting Decision (adopt a
// forked child, resume the tracee, detach, or advance the job out of
// spawned), per §4.4.4.
func (e *Engine) handleTraceStop(wr WaitResult) {
	ts, ok := e.tracers[wr.PID]
	if !ok {
		return
	}

	d := ts.tracker.Handle(wr.Kind, wr.ChildPID)

	if d.AdoptChild {
		delete(e.tracers, wr.PID)
		e.tracers[ts.tracker.PID] = ts
		ts.job.PID[job.Main] = ts.tracker.PID
	}

	if d.Continue && e.traceOps != nil {
		if d.SetOptions {
			_ = e.traceOps.SetOptions(ts.tracker.PID)
		}
		_ = e.traceOps.Continue(ts.tracker.PID, 0)
	}

	if d.Detach {
		if e.traceOps != nil {
			_ = e.traceOps.Detach(ts.tracker.PID)
		}
		delete(e.tracers, ts.tracker.PID)
	}

	if d.Advance {
		e.Machine.Advance(ts.job)
		e.notifyJobStatus(ts.job)
		e.RunPending()
	}
}
