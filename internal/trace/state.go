// Package trace implements the ptrace-based fork tracker used to detect
// when a daemonising process has finished forking (§4.4.4).
package trace

// State is one of the four states the tracker moves through per traced
// job instance.
type State int

const (
	None State = iota
	New
	Normal
	NewChild
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case New:
		return "new"
	case Normal:
		return "normal"
	case NewChild:
		return "new_child"
	default:
		return "unknown"
	}
}

// EventKind classifies a single ptrace-stop the tracker reacts to. The
// caller (the OS-specific half of this package) is responsible for
// decoding a raw wait status into one of these.
type EventKind int

const (
	// EvAttachTrap is the first synthetic SIGTRAP delivered once the
	// tracee is attached (PTRACE_ATTACH or a self-PTRACE_TRACEME exec
	// trap).
	EvAttachTrap EventKind = iota
	// EvFork is a PTRACE_EVENT_FORK/VFORK notification.
	EvFork
	// EvExec is a PTRACE_EVENT_EXEC notification.
	EvExec
	// EvChildStopped is the SIGSTOP the child raises against itself right
	// after being forked (the traditional double-fork convention).
	EvChildStopped
	// EvOther is anything else (a signal to deliver transparently).
	EvOther
)

// Decision is what Step tells the caller to do in response to one event.
type Decision struct {
	NextState State

	// Advance signals the job should leave the spawned state now: the
	// daemon (or forked child, for expectation=fork) has been found.
	Advance bool

	// AdoptChild signals the engine should replace the job's tracked main
	// PID with the newly forked child.
	AdoptChild bool

	// Continue signals the current tracee should be resumed with
	// PTRACE_CONT (as opposed to being left stopped, e.g. while waiting
	// for a child's own SIGSTOP).
	Continue bool

	// SetOptions signals the tracer must (re)issue PTRACE_SETOPTIONS on
	// the current tracee before continuing it: either because it has
	// just arrived via a fresh attach trap, or because it is a child
	// that a PTRACE_O_TRACEFORK parent was already tracing automatically
	// (its own SIGSTOP is the only signal that tracee will ever produce
	// — there is no second attach trap to wait for).
	SetOptions bool

	// Detach signals the tracer should PTRACE_DETACH from the current
	// tracee; it accompanies Advance once enough forks have been seen, or
	// an exec has been observed.
	Detach bool
}

// Step advances state in reaction to ev, given how many forks the job's
// expectation requires (1 for `fork`, 2 for `daemon`) and how many have
// been seen so far (forksSeen is updated in place).
func Step(state State, forksNeeded int, forksSeen *int, ev EventKind) Decision {
	switch state {
	case None:
		return Decision{NextState: None}

	case New:
		if ev == EvAttachTrap {
			// Install PTRACE_O_TRACEFORK|PTRACE_O_TRACEEXEC (done by the
			// caller) and resume.
			return Decision{NextState: Normal, Continue: true, SetOptions: true}
		}
		return Decision{NextState: state, Continue: true}

	case Normal:
		switch ev {
		case EvFork:
			return Decision{NextState: NewChild, AdoptChild: true, Detach: false}
		case EvExec:
			return Decision{NextState: Normal, Advance: true, Detach: true}
		default:
			return Decision{NextState: state, Continue: true}
		}

	case NewChild:
		if ev == EvChildStopped {
			*forksSeen++
			if *forksSeen >= forksNeeded {
				return Decision{NextState: Normal, Advance: true, Detach: true}
			}
			// Not enough forks yet. A PTRACE_O_TRACEFORK parent's child
			// is already an automatic tracee by the time its own
			// SIGSTOP is reported here — unlike the original tracee,
			// no further synthetic attach trap will ever arrive for
			// it, so there is nothing to wait for in New. Reinstall
			// options and resume it directly, matching
			// job_process_trace_new_child's immediate
			// PTRACE_SETOPTIONS+PTRACE_CONT on the new child pid.
			return Decision{NextState: Normal, Continue: true, SetOptions: true}
		}
		return Decision{NextState: state, Continue: true}

	default:
		return Decision{NextState: state}
	}
}

// ForksRequired returns how many forks the tracker must observe for
// expectation, where expectation is 1 (`fork`) or 2 (`daemon`); callers
// outside this package pass the right count rather than this package
// depending on job.Expectation (avoiding an import cycle, since job
// depends on trace).
func ForksRequired(daemon bool) int {
	if daemon {
		return 2
	}
	return 1
}
