package engine

import (
	"time"

	"github.com/ubports/upstart/internal/control"
)

// Run is the §5 single-threaded main loop: one select over control
// requests, classified OS signals, kill-timer expiry and a 1-second
// tick (the quiesce wait/kill-phase clock and, incidentally, a
// backstop reap in case a SIGCHLD was coalesced away while another was
// being handled). It returns once stop is closed or a quiesce sequence
// completes, whichever happens first.
func (e *Engine) Run(stop <-chan struct{}, requests <-chan *control.Request, signals <-chan SignalKind) {
	done := make(chan struct{})
	var doneOnce bool
	e.OnQuiesceComplete = func() {
		if !doneOnce {
			doneOnce = true
			close(done)
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	e.RunPending()

	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			e.HandleRequest(req)
		case kind := <-signals:
			e.HandleSignal(kind, nowUnix())
		case j := <-e.killTimers.Expired():
			e.onKillTimerExpired(j)
			e.RunPending()
		case t := <-ticker.C:
			now := t.Unix()
			e.ReapAll(now)
			e.QuiesceTick(now)
		}
	}
}

// nowUnix is the one place Run reads the wall clock, isolated so the
// rest of the package only ever receives "now" as a parameter and stays
// deterministically testable.
func nowUnix() int64 { return time.Now().Unix() }
