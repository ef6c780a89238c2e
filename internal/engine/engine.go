// Package engine ties the job registry, event queue, process reaper and
// control socket into the single-threaded main loop described by spec
// §5: every exported method here is meant to be called only from that
// loop's own goroutine, with the sole exception of the channels Run
// selects on (stop, control requests, OS signals, kill-timer expiry),
// which are safe to send on from any goroutine precisely
// because they carry no mutable engine state across the boundary.
package engine

import (
	"log"
	"time"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/event"
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/trace"
)

// Journal is the narrow interface internal/journal's store satisfies; it
// lets Engine remain buildable and testable without a real database
// (SPEC_FULL §C.3). A nil Journal simply means EventHistory never has
// anything to return and job/event completions are not recorded.
type Journal interface {
	RecordEvent(name string, args, env []string, failed bool)
	RecordJobOutcome(name, instance string, failed bool)
	Query(nameGlob string, hasGlob bool, limit uint32) ([]JournalEntry, error)
}

// JournalEntry is one row Journal.Query returns, shaped to reconstruct an
// EventHistory reply's Event messages.
type JournalEntry struct {
	Name   string
	Args   []string
	Env    []string
	Failed bool
}

// Engine owns every piece of mutable supervision state: the job
// registry, the event queue, the state machine, the wire-id translation
// table and the set of control-socket subscribers. It is deliberately
// not safe for concurrent use — §5's single-threaded invariant is
// enforced by construction, not by locking.
type Engine struct {
	Registry *job.Registry
	Queue    *event.Queue
	Machine  *job.Machine
	Journal  Journal

	ids *idTable

	logPriority uint32

	subs *subscribers

	killTimers *killTimers

	quiesce *quiesceState

	// OnQuiesceComplete is called once the §4.7 shutdown sequence
	// finishes (every job stopped, or the kill phase's own deadline
	// passed); Run uses it to exit the main loop.
	OnQuiesceComplete func()

	// waiter and traceOps are the OS-specific reaping/tracing drivers
	// (linux: reap_linux.go's osWaiter/osTraceOps); tests inject fakes.
	waiter   ChildWaiter
	traceOps TraceOps

	// tracers tracks in-flight ptrace fork-tracking sessions, keyed by
	// the pid currently being traced (reap.go).
	tracers map[int]*tracerState

	// sock is the bound control socket notifications are pushed through
	// (subscribe.go); nil until Attach is called.
	sock *control.Socket
}

// New returns an Engine wired together from its collaborators. spawner and
// killer are the job package's process-side dependencies (OSSpawner and a
// signal-sending Killer on linux); tests pass fakes.
func New(spawner job.Spawner, killer job.Killer, waiter ChildWaiter, traceOps TraceOps, j Journal) *Engine {
	registry := job.NewRegistry()
	queue := event.NewQueue()
	e := &Engine{
		Registry: registry,
		Queue:    queue,
		Journal:  j,
		ids:      newIDTable(),
		subs:     newSubscribers(),
		waiter:   waiter,
		traceOps: traceOps,
		tracers:  make(map[int]*tracerState),
	}
	e.killTimers = newKillTimers()
	e.Machine = &job.Machine{
		Queue:        queue,
		Spawner:      spawner,
		Killer:       killer,
		OnDestroy:    e.onInstanceDestroyed,
		OnTraceSpawn: e.onTraceSpawn,
		OnKillArmed:  e.onKillArmed,
	}
	return e
}

// ForceKiller is implemented by a job.Killer that can also send an
// unblockable termination signal; the engine reaches for it once a
// job's kill-timer expires (§5: "a kill-timer firing promotes the
// termination signal to the unblockable kill").
type ForceKiller interface {
	ForceKill(pid int) error
}

func (e *Engine) onKillArmed(j *job.Job) {
	d := time.Duration(j.Config.KillTimeout) * time.Second
	if d <= 0 {
		d = job.DefaultKillTimeout * time.Second
	}
	e.killTimers.arm(j, d)
}

// onKillTimerExpired promotes j's termination signal to an unblockable
// kill once its timer fires. It is only meaningful if j is still in
// Killed with a live main process; a job that was reaped in the
// interleaving window between the timer firing and the main loop
// processing it already cancelled this timer in onInstanceDestroyed/
// reapOne, so this is a no-op in that case.
func (e *Engine) onKillTimerExpired(j *job.Job) {
	if j.State != job.Killed || !j.MainAlive() {
		return
	}
	if fk, ok := e.Machine.Killer.(ForceKiller); ok {
		_ = fk.ForceKill(j.PID[job.Main])
	} else if e.Machine.Killer != nil {
		_ = e.Machine.Killer.Kill(j.PID[job.Main])
	}
}

// onTraceSpawn wires job.Machine.OnTraceSpawn to the fork tracker (§4.4.4).
func (e *Engine) onTraceSpawn(j *job.Job, pid int) {
	forksNeeded := trace.ForksRequired(j.Config.Expectation == job.ExpectDaemon)
	e.TrackDaemon(j, pid, forksNeeded)
}

// onInstanceDestroyed is Machine.OnDestroy: it records the terminal
// outcome in the journal, releases the instance's wire id, cancels any
// armed kill timer (the job is gone, the timer must not fire late) and
// finally lets the registry do its own bookkeeping (§4.3's instance-list
// removal and deferred-replacement installation).
func (e *Engine) onInstanceDestroyed(j *job.Job) {
	if e.Journal != nil {
		e.Journal.RecordJobOutcome(j.Config.Name, j.Name, j.Failed)
	}
	e.killTimers.cancel(j)
	// Broadcast the terminal status while j is still listed on its
	// config's instance list (notifyJobStatus elsewhere uses that
	// membership to decide whether a job is still live, to avoid
	// re-minting a wire id for a struct that is about to be torn down),
	// then let the registry remove it and release the id.
	e.notifyJobStatus(j)
	e.Registry.OnInstanceDestroyed(j)
	e.ids.release(j)
}

// SetLogPriority implements SPEC_FULL §C.1: LogPriority adjusts which
// log.Printf calls are actually emitted, independent of any job's
// console setting. The engine only compares numerically: logf emits a
// message whose priority is at or above p and drops one below it, so a
// higher p logs less and the default of 0 logs everything.
func (e *Engine) SetLogPriority(p uint32) { e.logPriority = p }

// LogPriority returns the current filter level.
func (e *Engine) LogPriority() uint32 { return e.logPriority }

// logf emits msg through the standard logger iff priority is at or above
// the configured filter, matching the teacher's plain log.Printf style
// (SPEC_FULL §A.1) rather than a structured logging library.
func (e *Engine) logf(priority uint32, format string, args ...any) {
	if priority < e.logPriority {
		return
	}
	log.Printf(format, args...)
}
