//go:build linux

// Package client implements a thin Go client for the control transport
// §6 describes, replacing choo's generated gRPC stub with direct
// internal/wire framing over an internal/control.Socket (SPEC_FULL §A.5).
package client

import (
	"fmt"
	"os"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/wire"
)

// Client is a bound control-socket endpoint addressed at a daemon, the
// way choo's Client wraps a *grpc.ClientConn. Every exported method
// sends one request frame and reads back the reply bracket that
// operation defines (§6); requests are synchronous since nothing else
// writes to this process's own bound address between a send and its
// matching reply.
type Client struct {
	sock *control.Socket
	to   string
}

// Dial binds this process's own abstract-namespace address and targets
// every subsequent call at to (control.PID1Address for a system
// instance, or control.ProcessAddress(daemonPID) for a session one).
func Dial(to string) (*Client, error) {
	return DialAs(control.ProcessAddress(os.Getpid()), to)
}

// DialAs binds own as the client's abstract-namespace address rather
// than deriving it from the calling process's pid. Dial is what
// cmd/initctl actually uses; DialAs exists for callers (tests, or a
// process that wants to run more than one client) that need to pick
// their own address explicitly.
func DialAs(own, to string) (*Client, error) {
	sock, err := control.Bind(own)
	if err != nil {
		return nil, fmt.Errorf("client: bind: %w", err)
	}
	return &Client{sock: sock, to: to}, nil
}

// Close releases the client's own bound socket.
func (c *Client) Close() error { return c.sock.Close() }

func (c *Client) send(msg wire.Message) error {
	return c.sock.SendTo(c.to, wire.Encode(msg))
}

func (c *Client) recv() (wire.Message, error) {
	rx, err := c.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("client: recv: %w", err)
	}
	return wire.Decode(rx.Frame)
}

// call sends msg and decodes exactly one reply frame, the shape every
// single-reply operation (VersionQuery, JobQuery, JobStart, JobStop)
// uses.
func (c *Client) call(msg wire.Message) (wire.Message, error) {
	if err := c.send(msg); err != nil {
		return nil, err
	}
	return c.recv()
}

// Version queries the daemon's protocol version string.
func (c *Client) Version() (string, error) {
	reply, err := c.call(&wire.VersionQuery{})
	if err != nil {
		return "", err
	}
	v, ok := reply.(*wire.Version)
	if !ok {
		return "", fmt.Errorf("client: unexpected reply %T to VersionQuery", reply)
	}
	return v.Version, nil
}

// SetLogPriority adjusts the daemon's log filter level. HandleRequest
// never replies to LogPriority (§C.1), so this only sends.
func (c *Client) SetLogPriority(priority uint32) error {
	return c.send(&wire.LogPriority{Priority: priority})
}

// FindJob looks up a single job by exact name, the CLI's "does JOB
// exist / what's its current id" use of JobFind. JobFind's reply
// bracket has no terminator for the matching-instance case (§6), so
// FindJob is only meaningful for a name expected to resolve to at most
// one instance; a genuine multi-instance listing goes through ListJobs
// (JobList), which does have one.
func (c *Client) FindJob(name string) (*wire.Job, error) {
	reply, err := c.call(&wire.JobFind{Pattern: name, HasPattern: true})
	if err != nil {
		return nil, err
	}
	switch m := reply.(type) {
	case *wire.Job:
		return m, nil
	case *wire.JobUnknown:
		return nil, fmt.Errorf("client: job %q unknown", name)
	default:
		return nil, fmt.Errorf("client: unexpected reply %T to JobFind", reply)
	}
}

// JobInfo is one job's detailed status, the bracket-collapsed form of
// JobStatus/JobProcess.../JobStatusEnd (§6).
type JobInfo struct {
	ID    uint32
	Name  string
	Goal  uint32
	State uint32
	PIDs  map[uint32]int32 // process slot -> pid
}

// QueryJob asks for one job's detailed status by name or id (id takes
// precedence when non-zero, matching internal/engine's resolveByID).
func (c *Client) QueryJob(name string, id uint32) (*JobInfo, error) {
	if err := c.send(&wire.JobQuery{Name: name, ID: id}); err != nil {
		return nil, err
	}
	return c.readJobStatusBracket()
}

func (c *Client) readJobStatusBracket() (*JobInfo, error) {
	first, err := c.recv()
	if err != nil {
		return nil, err
	}
	switch m := first.(type) {
	case *wire.JobUnknown:
		return nil, fmt.Errorf("client: job %q (id %d) unknown", m.Name, m.ID)
	case *wire.JobStatus:
		return c.collectJobStatusBracket(m.ID, m.Name, m.Goal, m.State)
	default:
		return nil, fmt.Errorf("client: unexpected reply %T to JobQuery", first)
	}
}

// collectJobStatusBracket reads the JobProcess* frames following an
// already-consumed JobStatus header, up to and including JobStatusEnd.
func (c *Client) collectJobStatusBracket(id uint32, name string, goal, state uint32) (*JobInfo, error) {
	info := &JobInfo{ID: id, Name: name, Goal: goal, State: state, PIDs: map[uint32]int32{}}
	for {
		next, err := c.recv()
		if err != nil {
			return nil, err
		}
		switch p := next.(type) {
		case *wire.JobProcess:
			info.PIDs[p.ProcessSlot] = p.PID
		case *wire.JobStatusEnd:
			return info, nil
		default:
			return nil, fmt.Errorf("client: unexpected frame %T within JobStatus bracket", next)
		}
	}
}

// StartJob sets a job's goal to start, by name or by id (id takes
// precedence when non-zero).
func (c *Client) StartJob(name string, id uint32) (*wire.Job, error) {
	reply, err := c.call(&wire.JobStart{Name: name, ID: id})
	if err != nil {
		return nil, err
	}
	return jobOrError(reply, name, id)
}

// StopJob sets a job's goal to stop, by name or by id (id takes
// precedence when non-zero).
func (c *Client) StopJob(name string, id uint32) (*wire.Job, error) {
	reply, err := c.call(&wire.JobStop{Name: name, ID: id})
	if err != nil {
		return nil, err
	}
	return jobOrError(reply, name, id)
}

func jobOrError(reply wire.Message, name string, id uint32) (*wire.Job, error) {
	switch m := reply.(type) {
	case *wire.Job:
		return m, nil
	case *wire.JobUnknown:
		return nil, fmt.Errorf("client: job %q (id %d) unknown", name, id)
	case *wire.JobInvalid:
		return nil, fmt.Errorf("client: job %q (id %d) invalid (template config needs an id)", name, id)
	default:
		return nil, fmt.Errorf("client: unexpected reply %T", reply)
	}
}

// ListJobs requests the full JobStatus bracket for every instance whose
// config name matches pattern (empty pattern matches all), reading until
// JobListEnd terminates the stream.
func (c *Client) ListJobs(pattern string) ([]*JobInfo, error) {
	if err := c.send(&wire.JobList{Pattern: pattern}); err != nil {
		return nil, err
	}

	var out []*JobInfo
	for {
		first, err := c.recv()
		if err != nil {
			return nil, err
		}
		if _, ok := first.(*wire.JobListEnd); ok {
			return out, nil
		}
		status, ok := first.(*wire.JobStatus)
		if !ok {
			return nil, fmt.Errorf("client: unexpected frame %T within JobList stream", first)
		}
		info, err := c.collectJobStatusBracket(status.ID, status.Name, status.Goal, status.State)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
}

// EmitResult is the outcome of EmitEvent: the minted event id plus
// whether any blocked job it released ultimately failed.
type EmitResult struct {
	ID     uint32
	Failed bool
}

// EmitEvent emits a named event with the given args/env and waits for it
// to finish propagating (§4.5), returning its outcome.
func (c *Client) EmitEvent(name string, args, env []string) (*EmitResult, error) {
	if err := c.send(&wire.EventEmit{Name: name, Args: args, Env: env}); err != nil {
		return nil, err
	}
	first, err := c.recv()
	if err != nil {
		return nil, err
	}
	ev, ok := first.(*wire.Event)
	if !ok {
		return nil, fmt.Errorf("client: unexpected reply %T to EventEmit", first)
	}
	second, err := c.recv()
	if err != nil {
		return nil, err
	}
	fin, ok := second.(*wire.EventFinished)
	if !ok {
		return nil, fmt.Errorf("client: unexpected second reply %T to EventEmit", second)
	}
	return &EmitResult{ID: ev.ID, Failed: fin.Failed}, nil
}

// EventHistory queries internal/journal through the EventHistory
// extension message (§C.3), reading until EventHistoryEnd terminates
// the stream.
func (c *Client) EventHistory(nameGlob string, hasGlob bool, limit uint32) ([]*wire.Event, error) {
	if err := c.send(&wire.EventHistory{NameGlob: nameGlob, HasNameGlob: hasGlob, Limit: limit}); err != nil {
		return nil, err
	}
	var out []*wire.Event
	for {
		reply, err := c.recv()
		if err != nil {
			return nil, err
		}
		switch m := reply.(type) {
		case *wire.Event:
			out = append(out, m)
		case *wire.EventHistoryEnd:
			return out, nil
		default:
			return nil, fmt.Errorf("client: unexpected frame %T within EventHistory stream", reply)
		}
	}
}

// SubscribeJobs/SubscribeEvents register this client's bound address to
// receive unsolicited JobStatus/Event notifications (subscribe.go);
// neither has a reply to wait for.
func (c *Client) SubscribeJobs() error     { return c.send(&wire.SubscribeJobs{}) }
func (c *Client) UnsubscribeJobs() error   { return c.send(&wire.UnsubscribeJobs{}) }
func (c *Client) SubscribeEvents() error   { return c.send(&wire.SubscribeEvents{}) }
func (c *Client) UnsubscribeEvents() error { return c.send(&wire.UnsubscribeEvents{}) }

// Next blocks for the next unsolicited notification frame after a
// Subscribe* call (used by `initctl monitor`'s TUI to stream updates).
func (c *Client) Next() (wire.Message, error) {
	return c.recv()
}
