package job

import (
	"fmt"
	"strconv"

	"github.com/ubports/upstart/internal/envtable"
	"github.com/ubports/upstart/internal/event"
)

// Spawner starts the process configured for slot on j and returns its
// pid. The linux implementation (spawn_linux.go) applies chroot/chdir/
// rlimits/umask/nice at the points SPEC_FULL §C.4 lists (not all of them
// between fork and exec) and, when trace is true, attaches ptrace before
// the child execs.
type Spawner interface {
	Spawn(j *Job, slot Slot, proc *Process, trace bool) (pid int, err error)
}

// Killer sends a termination signal to pid.
type Killer interface {
	Kill(pid int) error
}

// Machine drives the job state machine (§4.4): goal changes, state
// transitions, and the per-state entry actions.
type Machine struct {
	Queue   *event.Queue
	Spawner Spawner
	Killer  Killer
	// OnDestroy is called when a job instance reaches waiting/stop and is
	// removed from its config (registry bookkeeping lives one layer up,
	// in engine, to avoid this package depending on Registry).
	OnDestroy func(j *Job)
	// OnTraceSpawn is called right after a Main process is spawned with
	// trace=true (expectation daemon/fork), so the engine can register it
	// with internal/trace's fork tracker (§4.4.4) without this package
	// depending on internal/trace's OS-specific driver.
	OnTraceSpawn func(j *Job, pid int)
	// OnKillArmed is called right after the kill-timer is armed entering
	// Killed, so the engine can start the actual wall-clock timer
	// (job.Config.KillTimeout) without this package depending on time.
	OnKillArmed func(j *Job)
}

// nextState implements §4.4.1's transition table. ok is false only for
// the single unreachable cell (waiting, goal=stop).
func nextState(state State, goal Goal, mainAlive bool) (State, bool) {
	switch state {
	case Waiting:
		if goal == Start {
			return Starting, true
		}
		return Waiting, false
	case Starting:
		if goal == Start {
			return PreStart, true
		}
		return Stopping, true
	case PreStart:
		if goal == Start {
			return Spawned, true
		}
		return Stopping, true
	case Spawned:
		if goal == Start {
			return PostStart, true
		}
		return Stopping, true
	case PostStart:
		if goal == Start {
			return Running, true
		}
		return Stopping, true
	case Running:
		if goal == Start {
			return Stopping, true
		}
		if mainAlive {
			return PreStop, true
		}
		return Stopping, true
	case PreStop:
		if goal == Start {
			return Running, true
		}
		return Stopping, true
	case Stopping:
		return Killed, true
	case Killed:
		return PostStop, true
	case PostStop:
		if goal == Start {
			return Starting, true
		}
		return Waiting, true
	default:
		return state, false
	}
}

// isRestState reports whether (state, goal) is one of the two rest states
// the induction rule cares about.
func isRestState(state State, goal Goal) bool {
	return (state == Waiting && goal == Stop) || (state == Running && goal == Start)
}

// SetGoal changes j's goal, applying the induction rule: a change in a
// rest state advances the job immediately; a change anywhere else only
// updates Goal, and the current transition completes naturally. A change
// to the same goal is a no-op.
func (m *Machine) SetGoal(j *Job, goal Goal) {
	if j.Goal == goal {
		return
	}
	wasRest := isRestState(j.State, j.Goal)
	j.Goal = goal
	if wasRest {
		m.Advance(j)
	}
}

// Advance repeatedly computes the next state and performs its entry
// action, stopping when an action does not fall through (it spawned a
// process, armed a timer, or set j.Blocked) or when the transition is
// unreachable.
func (m *Machine) Advance(j *Job) {
	for {
		prev := j.State
		next, ok := nextState(j.State, j.Goal, j.MainAlive())
		if !ok {
			return
		}
		j.State = next
		if !m.enter(j, prev) {
			return
		}
	}
}

// Continue resumes a job that was waiting on j.Blocked, once that event
// has finished.
func (m *Machine) Continue(j *Job) {
	j.Blocked = nil
	m.Advance(j)
}

func (m *Machine) fail(j *Job, slot Slot, isRespawn bool) {
	if j.Failed {
		return
	}
	j.Failed = true
	j.FailedProcess = FailedProcess{Slot: slot, HasSlot: !isRespawn, IsRespawn: isRespawn}
}

// enter performs the entry action for j's current state and returns
// whether the state machine should immediately fall through to the next
// transition. prev is the state j was in immediately before this one,
// needed by enterRunning to detect a cancelled stop (§4.4.2).
func (m *Machine) enter(j *Job, prev State) bool {
	switch j.State {
	case Starting:
		return m.enterStarting(j)
	case PreStart:
		return m.enterHook(j, PreStart, true)
	case Spawned:
		return m.enterSpawned(j)
	case PostStart:
		return m.enterHook(j, PostStart, false)
	case Running:
		return m.enterRunning(j, prev)
	case PreStop:
		return m.enterHook(j, PreStop, false)
	case Stopping:
		return m.enterStopping(j)
	case Killed:
		return m.enterKilled(j)
	case PostStop:
		return m.enterHook(j, PostStop, true)
	case Waiting:
		return m.enterWaiting(j)
	default:
		return false
	}
}

func (m *Machine) enterStarting(j *Job) bool {
	if j.StartEnv.Len() > 0 {
		j.Env = j.StartEnv
	}
	j.StopEnv = envtable.New()
	j.Failed = false
	j.FailedProcess = FailedProcess{}

	ev := m.Queue.Emit("starting", []string{j.instanceArg()}, nil)
	j.Blocked = ev
	return false
}

// enterHook spawns the hook process in slot if defined. It only handles
// the *spawn* failure case: failsJobOnSpawnError is true for
// pre-start/post-stop, whose spawn failure fails the job, and false for
// post-start/pre-stop, where it is ignored (§4.4.2). A non-zero exit is
// judged later, by slot, in reap.go.
func (m *Machine) enterHook(j *Job, slot Slot, failsJobOnSpawnError bool) bool {
	proc := j.Config.Process(slot)
	if proc == nil {
		return true
	}
	pid, err := m.Spawner.Spawn(j, slot, proc, false)
	if err != nil {
		if failsJobOnSpawnError {
			m.fail(j, slot, false)
			j.Goal = Stop
		}
		return true
	}
	j.PID[slot] = pid
	return false
}

func (m *Machine) enterSpawned(j *Job) bool {
	proc := j.Config.Process(Main)
	if proc == nil {
		return true
	}
	trace := j.Config.Expectation == ExpectDaemon || j.Config.Expectation == ExpectFork
	pid, err := m.Spawner.Spawn(j, Main, proc, trace)
	if err != nil {
		m.fail(j, Main, false)
		j.Goal = Stop
		return true
	}
	j.PID[Main] = pid
	if trace {
		if m.OnTraceSpawn != nil {
			m.OnTraceSpawn(j, pid)
		}
		return false
	}
	if j.Config.Expectation == ExpectNone {
		return true
	}
	return false
}

// enterRunning handles the §4.4.2 "running" entry action: if we arrived
// here from pre-stop, the stop was cancelled by a goal flip back to
// start, so stop_env is dropped and the stop's blockers are released
// without ever reaching stopping. Otherwise this is a normal completed
// start, and a "started" event is emitted.
func (m *Machine) enterRunning(j *Job, prev State) bool {
	if prev == PreStop {
		j.StopEnv = envtable.New()
		m.releaseBlocking(j)
	} else {
		m.Queue.Emit("started", []string{j.instanceArg()}, nil)
	}
	if !j.Config.Task {
		m.releaseBlocking(j)
	}
	return false
}

func (m *Machine) enterStopping(j *Job) bool {
	env := []string{"RESULT=" + j.resultString()}
	if j.FailedProcess.HasSlot {
		env = append(env, "PROCESS="+j.FailedProcess.Slot.String())
	}
	if j.FailedProcess.IsRespawn {
		env = append(env, "PROCESS=respawn")
	}
	if j.ExitSignal {
		env = append(env, "EXIT_SIGNAL="+signalName(j.ExitStatus))
	} else if j.Failed {
		env = append(env, "EXIT_STATUS="+strconv.Itoa(j.ExitStatus))
	}

	ev := m.Queue.Emit("stopping", []string{j.instanceArg()}, env)
	j.Blocked = ev
	return false
}

func (m *Machine) enterKilled(j *Job) bool {
	if !j.MainAlive() {
		return true
	}
	if m.Killer != nil {
		_ = m.Killer.Kill(j.PID[Main])
	}
	j.KillTimerArmed = true
	if m.OnKillArmed != nil {
		m.OnKillArmed(j)
	}
	return false
}

func (m *Machine) enterWaiting(j *Job) bool {
	env := []string{"RESULT=" + j.resultString()}
	if j.FailedProcess.HasSlot {
		env = append(env, "PROCESS="+j.FailedProcess.Slot.String())
	}
	m.Queue.Emit("stopped", []string{j.instanceArg()}, env)

	m.releaseBlocking(j)

	if m.OnDestroy != nil {
		m.OnDestroy(j)
	}
	return false
}

// signalNames maps a signal number to the bare name nih_signal_to_name
// would return (job.c:1085), covering the signals a supervised process
// is realistically killed or killed by; anything else falls back to its
// number.
var signalNames = map[int]string{
	1:  "SIGHUP",
	2:  "SIGINT",
	3:  "SIGQUIT",
	4:  "SIGILL",
	5:  "SIGTRAP",
	6:  "SIGABRT",
	7:  "SIGBUS",
	8:  "SIGFPE",
	9:  "SIGKILL",
	10: "SIGUSR1",
	11: "SIGSEGV",
	12: "SIGUSR2",
	13: "SIGPIPE",
	14: "SIGALRM",
	15: "SIGTERM",
	16: "SIGSTKFLT",
	17: "SIGCHLD",
	18: "SIGCONT",
	19: "SIGSTOP",
	20: "SIGTSTP",
	21: "SIGTTIN",
	22: "SIGTTOU",
	23: "SIGURG",
	24: "SIGXCPU",
	25: "SIGXFSZ",
	26: "SIGVTALRM",
	27: "SIGPROF",
	28: "SIGWINCH",
	29: "SIGIO",
	30: "SIGPWR",
	31: "SIGSYS",
}

// signalName resolves n to its bare signal name, falling back to the
// raw number when unrecognized (nih_signal_to_name's behaviour).
func signalName(n int) string {
	if name, ok := signalNames[n]; ok {
		return name
	}
	return strconv.Itoa(n)
}

func (j *Job) resultString() string {
	if j.Failed {
		return "failed"
	}
	return "ok"
}

func (j *Job) instanceArg() string {
	if j.Name != "" {
		return fmt.Sprintf("%s (%s)", j.Config.Name, j.Name)
	}
	return j.Config.Name
}

// releaseBlocking unblocks every event in j.Blocking (decrementing their
// block counts and asking the queue to recheck finalization), then
// clears the list. If j failed, every event it was blocking is marked
// failed too (job_unblock(job, TRUE) in the original), so the derived
// "<name>-finished" event reports RESULT=failed rather than ok.
func (m *Machine) releaseBlocking(j *Job) {
	for _, ev := range j.Blocking {
		if j.Failed {
			ev.Failed = true
		}
		ev.Unblock()
		if m.Queue != nil {
			m.Queue.Recheck(ev)
		}
	}
	j.Blocking = nil
}
