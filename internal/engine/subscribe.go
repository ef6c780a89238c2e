package engine

import (
	"log"

	"github.com/google/uuid"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/event"
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/wire"
)

// subKind records which of the two subscription streams (§6's
// SubscribeJobs/SubscribeEvents) one abstract-namespace address has
// asked for, plus a session id minted the first time that address
// subscribes to anything. The abstract-namespace address a peer binds
// is reused across reconnects by some clients, so the address alone
// doesn't distinguish one subscription session from the next one to
// reuse it; the id gives log lines a stable handle to correlate
// subscribe/unsubscribe/drop events for what is actually the same
// logical session.
type subKind struct {
	id     string
	jobs   bool
	events bool
}

// subscribers is the set of control-socket peers currently subscribed to
// job-status or event notifications, keyed by the bound address they
// used when subscribing (the same address Request.from carries, so a
// reply and an unsolicited notification both land on the sender's own
// socket).
type subscribers struct {
	byAddr map[string]subKind
}

func newSubscribers() *subscribers {
	return &subscribers{byAddr: make(map[string]subKind)}
}

func (s *subscribers) subscribeJobs(addr string) {
	k := s.byAddr[addr]
	if k.id == "" {
		k.id = uuid.NewString()
		log.Printf("engine: subscriber session %s opened by %s", k.id, addr)
	}
	k.jobs = true
	s.byAddr[addr] = k
}

func (s *subscribers) subscribeEvents(addr string) {
	k := s.byAddr[addr]
	if k.id == "" {
		k.id = uuid.NewString()
		log.Printf("engine: subscriber session %s opened by %s", k.id, addr)
	}
	k.events = true
	s.byAddr[addr] = k
}

func (s *subscribers) unsubscribeJobs(addr string)   { s.update(addr, func(k *subKind) { k.jobs = false }) }
func (s *subscribers) unsubscribeEvents(addr string) { s.update(addr, func(k *subKind) { k.events = false }) }

func (s *subscribers) update(addr string, f func(*subKind)) {
	k := s.byAddr[addr]
	f(&k)
	if !k.jobs && !k.events {
		if k.id != "" {
			log.Printf("engine: subscriber session %s closed by %s", k.id, addr)
		}
		delete(s.byAddr, addr)
		return
	}
	s.byAddr[addr] = k
}

// dropAddr removes every subscription held by addr, used when its
// socket disappears (a sender that vanished without unsubscribing).
func (s *subscribers) dropAddr(addr string) {
	if k, ok := s.byAddr[addr]; ok && k.id != "" {
		log.Printf("engine: subscriber session %s dropped (send failure) for %s", k.id, addr)
	}
	delete(s.byAddr, addr)
}

// Attach records the bound control socket notifications are sent
// through. Without one, notify calls are silently skipped (useful in
// tests that only exercise the state machine).
func (e *Engine) Attach(sock *control.Socket) { e.sock = sock }

func (e *Engine) send(addr string, msg wire.Message) {
	if e.sock == nil || addr == "" {
		return
	}
	if err := e.sock.SendTo(addr, wire.Encode(msg)); err != nil {
		e.logf(0, "engine: notify %s failed: %v", addr, err)
		e.subs.dropAddr(addr)
	}
}

// notifyEvent implements the "Event" half of an EventEmit subscriber
// stream: sent once the event is popped for dispatch.
func (e *Engine) notifyEvent(ev *event.Event) {
	msg := &wire.Event{ID: uint32(ev.ID), Name: ev.Name, Args: ev.Args, Env: ev.Env}
	for addr, k := range e.subs.byAddr {
		if k.events {
			e.send(addr, msg)
		}
	}
}

// notifyEventFinished implements the "EventFinished" half, sent once
// dispatch has completed (§8: "exactly one Event and exactly one
// EventFinished are eventually produced, in that order").
func (e *Engine) notifyEventFinished(ev *event.Event) {
	msg := &wire.EventFinished{ID: uint32(ev.ID), Failed: ev.Failed, Name: ev.Name, Args: ev.Args, Env: ev.Env}
	for addr, k := range e.subs.byAddr {
		if k.events {
			e.send(addr, msg)
		}
	}
}

// isLive reports whether j is still listed among its config's instances.
// Several call sites notify a job's status right after a call that can,
// as a side effect, run it all the way through to Waiting and destroy
// it (Continue, Reap, Advance); this guards notifyJobStatus against
// re-minting a wire id for a struct that is no longer part of the
// supervision state. onInstanceDestroyed itself calls notifyJobStatus
// before removing j from the instance list, so its own final broadcast
// still goes out.
func (e *Engine) isLive(j *job.Job) bool {
	for _, inst := range j.Config.Instances() {
		if inst == j {
			return true
		}
	}
	return false
}

// notifyJobStatus broadcasts j's current goal/state to every job
// subscriber, called wherever the engine observes a goal or state
// change take effect (dispatch's stop/start matching, reap, trace
// advance, and direct JobStart/JobStop handling).
func (e *Engine) notifyJobStatus(j *job.Job) {
	if !e.isLive(j) {
		return
	}
	msg := &wire.JobStatus{
		ID:    e.ids.idFor(j),
		Name:  j.Config.Name,
		Goal:  wireGoal(j.Goal),
		State: wireState(j.State),
	}
	for addr, k := range e.subs.byAddr {
		if k.jobs {
			e.send(addr, msg)
		}
	}
}
