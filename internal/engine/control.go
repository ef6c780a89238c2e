package engine

import (
	"path/filepath"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/wire"
)

// Version is the string a VersionQuery reply carries (SPEC_FULL §C.2).
const Version = "upstart"

// HandleRequest dispatches one authorized control request to the
// matching engine operation and replies through req.Reply, then drains
// the event queue (§4.5) so any goal changes the request made take
// immediate effect before the next request is read. This is the single
// entry point control.Server's channel of Requests feeds into the main
// loop (§5, §6).
func (e *Engine) HandleRequest(req *control.Request) {
	switch m := req.Msg.(type) {
	case *wire.NoOp:
		req.Reply(&wire.NoOp{})
	case *wire.VersionQuery:
		req.Reply(&wire.Version{Version: Version})
	case *wire.LogPriority:
		e.SetLogPriority(m.Priority)
	case *wire.JobFind:
		e.handleJobFind(req, m)
	case *wire.JobQuery:
		e.handleJobQuery(req, m)
	case *wire.JobStart:
		e.handleJobStart(req, m)
	case *wire.JobStop:
		e.handleJobStop(req, m)
	case *wire.JobList:
		e.handleJobList(req, m)
	case *wire.EventEmit:
		e.handleEventEmit(req, m)
	case *wire.EventHistory:
		e.handleEventHistory(req, m)
	case *wire.SubscribeJobs:
		e.subs.subscribeJobs(req.From())
	case *wire.UnsubscribeJobs:
		e.subs.unsubscribeJobs(req.From())
	case *wire.SubscribeEvents:
		e.subs.subscribeEvents(req.From())
	case *wire.UnsubscribeEvents:
		e.subs.unsubscribeEvents(req.From())
	default:
		e.logf(3, "engine: unhandled request type %T", m)
	}
	e.RunPending()
}

// resolveByID looks a job up by its wire id when id is non-zero,
// otherwise by config name; it never creates one. ok is false if id was
// given but unknown, or name names no config.
func (e *Engine) resolveByID(name string, id uint32) (j *job.Job, cfg *job.Config, ok bool) {
	if id != 0 {
		j, found := e.ids.lookup(id)
		if !found {
			return nil, nil, false
		}
		return j, j.Config, true
	}
	c, found := e.Registry.Get(name)
	if !found {
		return nil, nil, false
	}
	if inst, found := e.Registry.Instance(c, ""); found {
		return inst, c, true
	}
	return nil, c, true
}

func matchPattern(pattern string, hasPattern bool, name string) bool {
	if !hasPattern || pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// handleJobFind replies with one Job message per live instance whose
// config name matches Pattern (all configs if Pattern is absent/empty),
// plus a representative zero-id Job for a never-started, non-template
// config, matching upstart's "status on a never-started job still
// answers waiting" behaviour. JobUnknown is sent only when nothing else
// was: no config matches, or every matching config is an instance config
// with no live instances.
func (e *Engine) handleJobFind(req *control.Request, m *wire.JobFind) {
	found := false
	for _, cfg := range e.Registry.All() {
		if !matchPattern(m.Pattern, m.HasPattern, cfg.Name) {
			continue
		}
		if len(cfg.Instances()) == 0 {
			if !cfg.Instance {
				req.Reply(&wire.Job{ID: 0, Name: cfg.Name})
				found = true
			}
			continue
		}
		for _, j := range cfg.Instances() {
			req.Reply(&wire.Job{ID: e.ids.idFor(j), Name: cfg.Name})
			found = true
		}
	}
	if !found {
		req.Reply(&wire.JobUnknown{Name: m.Pattern, ID: 0})
	}
}

// jobStatusReply sends the JobStatus/JobProcess*/JobStatusEnd bracket
// §6 describes for a single job's detailed status.
func (e *Engine) jobStatusReply(req *control.Request, cfg *job.Config, j *job.Job) {
	id := uint32(0)
	if j != nil {
		id = e.ids.idFor(j)
	}
	goal, state := wire.GoalStop, wire.StateWaiting
	if j != nil {
		goal, state = wireGoal(j.Goal), wireState(j.State)
	}
	req.Reply(&wire.JobStatus{ID: id, Name: cfg.Name, Goal: goal, State: state})
	if j != nil {
		for i, pid := range j.PID {
			if pid > 0 {
				req.Reply(&wire.JobProcess{ProcessSlot: wireSlot(job.Slot(i)), PID: int32(pid)})
			}
		}
	}
	req.Reply(&wire.JobStatusEnd{ID: id, Name: cfg.Name, Goal: goal, State: state})
}

func (e *Engine) handleJobQuery(req *control.Request, m *wire.JobQuery) {
	j, cfg, ok := e.resolveByID(m.Name, m.ID)
	if !ok {
		req.Reply(&wire.JobUnknown{Name: m.Name, ID: m.ID})
		return
	}
	e.jobStatusReply(req, cfg, j)
}

// handleJobStart implements JobStart: a non-instance config starts (or
// is a no-op on) its single instance; a template-instance config
// requires an existing instance selected by ID (this transport has no
// parameter list to expand InstanceName against, unlike the config
// loader's own start_on matching in dispatch.go).
func (e *Engine) handleJobStart(req *control.Request, m *wire.JobStart) {
	cfg, ok := e.Registry.Get(m.Name)
	if m.ID == 0 && !ok {
		req.Reply(&wire.JobUnknown{Name: m.Name, ID: m.ID})
		return
	}
	var j *job.Job
	if m.ID != 0 {
		var found bool
		j, found = e.ids.lookup(m.ID)
		if !found {
			req.Reply(&wire.JobUnknown{Name: m.Name, ID: m.ID})
			return
		}
		cfg = j.Config
	} else if cfg.Instance {
		req.Reply(&wire.JobInvalid{ID: m.ID, Name: m.Name})
		return
	} else {
		var found bool
		j, found = e.Registry.Instance(cfg, "")
		if !found {
			j = job.NewJob(cfg, "")
		}
	}
	e.Machine.SetGoal(j, job.Start)
	e.notifyJobStatus(j)
	req.Reply(&wire.Job{ID: e.ids.idFor(j), Name: cfg.Name})
}

func (e *Engine) handleJobStop(req *control.Request, m *wire.JobStop) {
	j, cfg, ok := e.resolveByID(m.Name, m.ID)
	if !ok || j == nil {
		req.Reply(&wire.JobUnknown{Name: m.Name, ID: m.ID})
		return
	}
	e.Machine.SetGoal(j, job.Stop)
	e.notifyJobStatus(j)
	req.Reply(&wire.Job{ID: e.ids.idFor(j), Name: cfg.Name})
}

// handleJobList replies with the full JobStatus bracket for every
// instance of every config matching Pattern (as JobFind, but with full
// status detail), terminated by one JobListEnd.
func (e *Engine) handleJobList(req *control.Request, m *wire.JobList) {
	for _, cfg := range e.Registry.All() {
		if !matchPattern(m.Pattern, true, cfg.Name) {
			continue
		}
		if len(cfg.Instances()) == 0 {
			if !cfg.Instance {
				e.jobStatusReply(req, cfg, nil)
			}
			continue
		}
		for _, j := range cfg.Instances() {
			e.jobStatusReply(req, cfg, j)
		}
	}
	req.Reply(&wire.JobListEnd{Pattern: m.Pattern})
}

// handleEventEmit implements EventEmit: emit the event, drain it to
// completion, and reply with the Event/EventFinished pair directly to
// the requester regardless of whether it also subscribed to the events
// stream (§7: "every externally requested operation either receives a
// terminal reply ... or an error reply").
func (e *Engine) handleEventEmit(req *control.Request, m *wire.EventEmit) {
	ev := e.Queue.Emit(m.Name, m.Args, m.Env)
	req.Reply(&wire.Event{ID: uint32(ev.ID), Name: ev.Name, Args: ev.Args, Env: ev.Env})
	e.RunPending()
	req.Reply(&wire.EventFinished{ID: uint32(ev.ID), Failed: ev.Failed, Name: ev.Name, Args: ev.Args, Env: ev.Env})
}

// handleEventHistory answers the SPEC_FULL §C.3 journal query: each
// matching row becomes an Event reply (wire id 0, since history rows
// have no live event object), terminated by EventHistoryEnd.
func (e *Engine) handleEventHistory(req *control.Request, m *wire.EventHistory) {
	if e.Journal == nil {
		req.Reply(&wire.EventHistoryEnd{NameGlob: m.NameGlob, HasNameGlob: m.HasNameGlob})
		return
	}
	rows, err := e.Journal.Query(m.NameGlob, m.HasNameGlob, m.Limit)
	if err != nil {
		e.logf(3, "engine: event history query failed: %v", err)
		req.Reply(&wire.EventHistoryEnd{NameGlob: m.NameGlob, HasNameGlob: m.HasNameGlob})
		return
	}
	for _, row := range rows {
		req.Reply(&wire.Event{ID: 0, Name: row.Name, Args: row.Args, Env: row.Env})
	}
	req.Reply(&wire.EventHistoryEnd{NameGlob: m.NameGlob, HasNameGlob: m.HasNameGlob})
}
