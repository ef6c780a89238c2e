package event

// Queue holds events across their pending/handling/finished phases (§3,
// §4.5) and owns monotonic id allocation. It is meant to be driven by a
// single-threaded main loop: no method here takes a lock.
type Queue struct {
	nextID uint64

	// pending holds events in the order they were emitted, not yet handed
	// to a caller for dispatch.
	pending []*Event

	// awaitingZero holds events that reached the finished phase while
	// still blocking one or more jobs. Recheck removes an event from here
	// once its block count drops to zero.
	awaitingZero []*Event
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Emit allocates a new event id, appends a Pending-phase Event to the
// queue, and returns it.
func (q *Queue) Emit(name string, args, env []string) *Event {
	q.nextID++
	ev := New(q.nextID, name, args, env)
	q.pending = append(q.pending, ev)
	return ev
}

// Len returns the number of events still in the pending phase.
func (q *Queue) Len() int { return len(q.pending) }

// PopPending removes and returns the oldest Pending event, transitioning
// it to Handling. It returns false if the queue is empty.
func (q *Queue) PopPending() (*Event, bool) {
	if len(q.pending) == 0 {
		return nil, false
	}
	ev := q.pending[0]
	q.pending = q.pending[1:]
	ev.SetPhase(Handling)
	return ev, true
}

// Finish transitions ev to the Finished phase, per §4.5, after dispatch
// (stop matching, then start matching) has run against it. If ev's block
// count is already zero it is finalized immediately: a "<name>-finished"
// event is emitted carrying ev's original arguments plus RESULT=ok|failed.
// Otherwise ev is tracked until a later Recheck finds its block count at
// zero.
func (q *Queue) Finish(ev *Event) {
	ev.SetPhase(Finished)
	if !q.tryFinalize(ev) {
		q.awaitingZero = append(q.awaitingZero, ev)
	}
}

// Recheck re-tests a previously finished event whose block count may have
// just dropped (e.g. after an operator Reset released it). Callers should
// invoke this for every event released by a job's blocking list.
func (q *Queue) Recheck(ev *Event) {
	if ev.Phase() != Finished {
		return
	}
	if q.tryFinalize(ev) {
		q.removeAwaitingZero(ev)
	}
}

func (q *Queue) tryFinalize(ev *Event) bool {
	if ev.Phase() != Finished || ev.BlockCount() > 0 {
		return false
	}
	result := "ok"
	if ev.Failed {
		result = "failed"
	}
	finArgs := append([]string(nil), ev.Args...)
	q.Emit(ev.FinishedName(), finArgs, []string{"RESULT=" + result})
	return true
}

func (q *Queue) removeAwaitingZero(ev *Event) {
	for i, e := range q.awaitingZero {
		if e == ev {
			q.awaitingZero = append(q.awaitingZero[:i], q.awaitingZero[i+1:]...)
			return
		}
	}
}
