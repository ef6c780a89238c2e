package engine

import (
	"path/filepath"

	"github.com/ubports/upstart/internal/eventop"
	"github.com/ubports/upstart/internal/job"
)

// QuiescePhase is one step of the §4.7 shutdown sequence.
type QuiescePhase int

const (
	QuiesceNone QuiescePhase = iota
	QuiesceWait
	QuiesceKill
)

// SessionEndEvent is the event quiesce emits before stopping jobs,
// giving any job whose start_on names it a chance to run during the
// wait phase (§4.7, grounded on original_source/init/quiesce.c's
// SESSION_END_EVENT).
const SessionEndEvent = "session-end"

// quiesceDefaultWait is the wait phase's default duration in seconds
// (original_source/init/quiesce.h's QUIESCE_DEFAULT_JOB_RUNTIME).
const quiesceDefaultWait = 5

type quiesceState struct {
	phase         QuiescePhase
	phaseStart    int64
	started       int64
	sessionJobs   bool
	maxKillWait   int64
	system        bool
	done          bool
}

// BeginQuiesce starts the §4.7 shutdown sequence for a session-init
// instance. now is unix seconds (the caller's clock, so tests can drive
// it deterministically). A second call while one is already in progress
// is a no-op, matching quiesce()'s own re-entry guard.
func (e *Engine) BeginQuiesce(now int64) {
	e.beginQuiesce(now, false)
}

// BeginSystemQuiesce starts shutdown on behalf of the system rather
// than the session itself; the wait phase is skipped outright since
// there is no obligation to user jobs in that case (§4.7).
func (e *Engine) BeginSystemQuiesce(now int64) {
	e.beginQuiesce(now, true)
}

func (e *Engine) beginQuiesce(now int64, system bool) {
	if e.quiesce != nil && e.quiesce.phase != QuiesceNone {
		return
	}

	e.disableAllRespawn()

	q := &quiesceState{phase: QuiesceWait, phaseStart: now, started: now, system: system}
	if system {
		q.phase = QuiesceKill
	}
	e.quiesce = q

	e.Queue.Emit(SessionEndEvent, nil, []string{"TYPE=" + quiesceReason(system)})

	if q.phase == QuiesceWait {
		q.sessionJobs = e.anyStartsOn(SessionEndEvent)
		e.stopAllRunning()
		if !q.sessionJobs {
			q.phase = QuiesceKill
			q.phaseStart = now
		}
	}
	if q.phase == QuiesceKill {
		q.maxKillWait = e.maxKillTimeout()
		e.stopAllRunning()
	}
	e.RunPending()
}

func quiesceReason(system bool) string {
	if system {
		return "shutdown"
	}
	return "logout"
}

// QuiesceTick drives the 1-second periodic check quiesce.c's
// quiesce_wait_callback performs: advance from wait to kill once the
// default runtime elapses or every running job has already stopped,
// and report completion once nothing is left running or the kill phase
// itself times out. OnQuiesceComplete, if set, is called exactly once
// when the sequence finishes.
func (e *Engine) QuiesceTick(now int64) {
	q := e.quiesce
	if q == nil || q.phase == QuiesceNone || q.done {
		return
	}

	switch q.phase {
	case QuiesceKill:
		if q.maxKillWait > 0 && now-q.phaseStart > q.maxKillWait {
			e.finishQuiesce(now)
			return
		}
	case QuiesceWait:
		timedOut := now-q.phaseStart >= quiesceDefaultWait
		if timedOut || !e.anyJobRunning() {
			q.phase = QuiesceKill
			q.phaseStart = now
			q.maxKillWait = e.maxKillTimeout()
			e.stopAllRunning()
		}
	}

	if !e.anyJobRunning() {
		e.finishQuiesce(now)
	}
}

func (e *Engine) finishQuiesce(now int64) {
	if e.quiesce == nil || e.quiesce.done {
		return
	}
	e.quiesce.done = true
	e.logf(6, "engine: quiesce (%s) took %ds", quiesceReason(e.quiesce.system), now-e.quiesce.started)
	if e.OnQuiesceComplete != nil {
		e.OnQuiesceComplete()
	}
}

// anyJobRunning reports whether any instance is outside the rest state
// (job_process_jobs_running's equivalent).
func (e *Engine) anyJobRunning() bool {
	for _, cfg := range e.Registry.All() {
		for _, j := range cfg.Instances() {
			if j.State != job.Waiting {
				return true
			}
		}
	}
	return false
}

// disableAllRespawn suppresses the next respawn decision for every
// config (§4.7 step 1; SPEC_FULL §D.3's decision that disable_respawn
// only affects the next decision, not an in-flight runaway window).
func (e *Engine) disableAllRespawn() {
	for _, cfg := range e.Registry.All() {
		cfg.Respawn.DisableRespawn = true
	}
}

// stopAllRunning signals stop to every instance not already stopping
// (job_process_stop_all's equivalent).
func (e *Engine) stopAllRunning() {
	for _, cfg := range e.Registry.All() {
		for _, j := range append([]*job.Job(nil), cfg.Instances()...) {
			if j.Goal != job.Stop {
				e.Machine.SetGoal(j, job.Stop)
				e.notifyJobStatus(j)
			}
		}
	}
}

// maxKillTimeout returns the largest kill_timeout configured among
// configs with at least one live instance (job_class_max_kill_timeout).
func (e *Engine) maxKillTimeout() int64 {
	var max int64
	for _, cfg := range e.Registry.All() {
		if len(cfg.Instances()) == 0 {
			continue
		}
		if int64(cfg.KillTimeout) > max {
			max = int64(cfg.KillTimeout)
		}
	}
	return max
}

// anyStartsOn reports whether any config's start_on expression names
// eventName on a MATCH node, without touching any operator's evaluation
// state (quiesce_event_match's heuristic: presence, not satisfaction).
func (e *Engine) anyStartsOn(eventName string) bool {
	for _, cfg := range e.Registry.All() {
		if operatorNames(cfg.StartOn, eventName) {
			return true
		}
	}
	return false
}

func operatorNames(op *eventop.Operator, name string) bool {
	if op == nil {
		return false
	}
	if op.Kind == eventop.Match {
		ok, err := filepath.Match(op.Name, name)
		return err == nil && ok
	}
	for _, c := range op.Children {
		if operatorNames(c, name) {
			return true
		}
	}
	return false
}
