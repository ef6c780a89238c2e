// Package event implements upstart's Event: an immutable occurrence with a
// name, positional arguments, an environment, and a block count that keeps
// it alive while jobs are still waiting on it.
package event

// Phase is one of the three stages an Event moves through before it is
// destroyed (§3).
type Phase int

const (
	Pending Phase = iota
	Handling
	Finished
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Handling:
		return "handling"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is immutable once emitted, save for its phase, failed flag, and
// block count, which the engine and the jobs blocking on it update.
type Event struct {
	ID   uint64
	Name string
	Args []string
	Env  []string

	Failed bool

	phase      Phase
	blockCount int
}

// New constructs an Event with the given id, name, positional arguments and
// environment. The caller owns id allocation (the engine hands out a
// monotonic counter).
func New(id uint64, name string, args, env []string) *Event {
	return &Event{
		ID:    id,
		Name:  name,
		Args:  append([]string(nil), args...),
		Env:   append([]string(nil), env...),
		phase: Pending,
	}
}

// Phase returns the event's current phase.
func (e *Event) Phase() Phase { return e.phase }

// SetPhase transitions the event to phase. The engine is responsible for
// only moving it forward: pending -> handling -> finished.
func (e *Event) SetPhase(phase Phase) { e.phase = phase }

// Block increments the event's block count, recording that one more job is
// waiting on it to finish.
func (e *Event) Block() { e.blockCount++ }

// Unblock decrements the event's block count. It is a programming error to
// call it more times than Block was called; callers (eventop.Reset) only do
// so for events they previously blocked.
func (e *Event) Unblock() {
	if e.blockCount > 0 {
		e.blockCount--
	}
}

// BlockCount returns the number of jobs currently blocked on this event.
func (e *Event) BlockCount() int { return e.blockCount }

// Alive reports whether the event must still be kept around: either a job
// is blocked on it, or it has not yet reached the finished phase.
func (e *Event) Alive() bool {
	return e.blockCount > 0 || e.phase != Finished
}

// FinishedName returns the name of the "<name>-finished" event derived from
// e once it is finalized.
func (e *Event) FinishedName() string {
	return e.Name + "-finished"
}

// Arg returns the i-th positional argument, or "" if there aren't that many.
func (e *Event) Arg(i int) string {
	if i < 0 || i >= len(e.Args) {
		return ""
	}
	return e.Args[i]
}

// EnvValue returns the value for key in the event's environment, and
// whether key is present.
func (e *Event) EnvValue(key string) (string, bool) {
	for _, kv := range e.Env {
		if len(kv) > len(key) && kv[len(key)] == '=' && kv[:len(key)] == key {
			return kv[len(key)+1:], true
		}
		if kv == key {
			return "", true
		}
	}
	return "", false
}
