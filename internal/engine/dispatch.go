package engine

import (
	"github.com/ubports/upstart/internal/envtable"
	"github.com/ubports/upstart/internal/event"
	"github.com/ubports/upstart/internal/eventop"
	"github.com/ubports/upstart/internal/job"
)

// RunPending drains every event currently sitting in the Pending phase,
// dispatching each to stop-matching then start-matching (§4.5) and
// finishing it, repeating until the queue goes quiet — including any
// derived "<name>-finished" events the dispatch itself produced. This is
// the loop's "no other work pending" drain step; Run calls it after
// every reap, every control request and every Continue.
func (e *Engine) RunPending() {
	for {
		ev, ok := e.Queue.PopPending()
		if !ok {
			return
		}
		e.notifyEvent(ev)
		e.dispatch(ev)
		e.Queue.Finish(ev)
		if e.Journal != nil {
			e.Journal.RecordEvent(ev.Name, ev.Args, ev.Env, ev.Failed)
		}
		e.notifyEventFinished(ev)
		e.CheckBlocked()
	}
}

// dispatch implements §4.5's per-event stop-then-start matching order:
// every job instance's stop_on is tested (and acted on) before any
// config's start_on is tested, so a job that both stops and starts on
// the same event stops fully before the new instance starts.
func (e *Engine) dispatch(ev *event.Event) {
	for _, cfg := range e.Registry.All() {
		for _, j := range append([]*job.Job(nil), cfg.Instances()...) {
			if !eventop.Handle(j.StopOn, ev) {
				continue
			}
			e.matchStop(j, ev)
		}
	}

	for _, cfg := range e.Registry.All() {
		if !eventop.Handle(cfg.StartOn, ev) {
			continue
		}
		e.matchStart(cfg, ev)
	}
}

// matchStop implements §4.5 step 1 for one job instance whose stop_on
// just became true: collect the matched environment and blocking list,
// flip the goal to stop (or release the blockers immediately if the job
// was already stopping), then reset the operator tree for the next
// round of matching.
func (e *Engine) matchStop(j *job.Job, ev *event.Event) {
	env, blocking := eventop.Collect(j.StopOn, "UPSTART_STOP_EVENTS")
	eventop.Reset(j.StopOn)

	if j.Goal == job.Stop {
		for _, b := range blocking {
			b.Unblock()
			e.Queue.Recheck(b)
		}
		return
	}

	e.releaseOldBlocking(j)
	j.StopEnv = envtable.New(env...)
	j.Blocking = blocking
	e.Machine.SetGoal(j, job.Stop)
	e.notifyJobStatus(j)
}

// matchStart implements §4.5 step 2 for one config whose start_on just
// became true: expand the instance name template against the collected
// environment, find-or-create the matching instance, and drive its goal
// to start carrying the collected env/blocking list.
func (e *Engine) matchStart(cfg *job.Config, ev *event.Event) {
	env, blocking := eventop.Collect(cfg.StartOn, "UPSTART_EVENTS")
	eventop.Reset(cfg.StartOn)

	name := ""
	if cfg.Instance && cfg.InstanceName != "" {
		name, _ = envtable.New(env...).Expand(cfg.InstanceName)
	}

	j, ok := e.Registry.Instance(cfg, name)
	if !ok {
		j = job.NewJob(cfg, name)
	}

	e.releaseOldBlocking(j)
	j.StartEnv = envtable.New(env...)
	j.Blocking = blocking
	e.Machine.SetGoal(j, job.Start)
	e.notifyJobStatus(j)
}

// releaseOldBlocking releases whatever blocking list j was carrying
// before a fresh stop/start match replaces it, per §4.5's "releasing any
// old blocking list" clause.
func (e *Engine) releaseOldBlocking(j *job.Job) {
	for _, b := range j.Blocking {
		b.Unblock()
		e.Queue.Recheck(b)
	}
	j.Blocking = nil
}

// Continue resumes j once its Blocked event has finished
// (job.Machine.Continue: clears j.Blocked, re-enters Advance), then
// drains the queue. The main loop does not go through it: CheckBlocked
// resumes finished waits by calling job.Machine.Continue directly.
func (e *Engine) Continue(j *job.Job) {
	e.Machine.Continue(j)
	e.RunPending()
}

// CheckBlocked scans every instance and resumes any whose Blocked event
// has finished. The main loop calls this after RunPending so that a job
// blocked on "starting"/"stopping" advances as soon as that event's
// dispatch completes, without the engine needing a per-event subscriber
// list wired the other direction.
func (e *Engine) CheckBlocked() {
	for _, cfg := range e.Registry.All() {
		for _, j := range append([]*job.Job(nil), cfg.Instances()...) {
			if j.Blocked != nil && j.Blocked.Phase() == event.Finished {
				e.Machine.Continue(j)
				e.notifyJobStatus(j)
			}
		}
	}
}
