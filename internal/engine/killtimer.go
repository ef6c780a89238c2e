package engine

import (
	"time"

	"github.com/ubports/upstart/internal/job"
)

// killTimers owns the per-job kill_timeout timers (§5's "the only timers
// are per-job kill-timers and the quiesce periodic timer"). Each armed
// timer's expiry is handed to the main loop over a channel rather than
// acted on directly from the timer's own goroutine, preserving §5's
// single-threaded-mutation invariant the same way internal/control hands
// off decoded requests.
type killTimers struct {
	timers  map[*job.Job]*time.Timer
	expired chan *job.Job
}

func newKillTimers() *killTimers {
	return &killTimers{
		timers:  make(map[*job.Job]*time.Timer),
		expired: make(chan *job.Job, 8),
	}
}

// Expired is fed one *job.Job each time its kill timer fires.
func (kt *killTimers) Expired() <-chan *job.Job { return kt.expired }

// Arm starts (or restarts) j's kill timer for d. Arming twice replaces
// the previous timer.
func (kt *killTimers) arm(j *job.Job, d time.Duration) {
	kt.cancel(j)
	kt.timers[j] = time.AfterFunc(d, func() { kt.expired <- j })
}

// cancel stops j's kill timer, if any armed.
func (kt *killTimers) cancel(j *job.Job) {
	if t, ok := kt.timers[j]; ok {
		t.Stop()
		delete(kt.timers, j)
	}
}
