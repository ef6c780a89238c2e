package job

import (
	"github.com/ubports/upstart/internal/envtable"
	"github.com/ubports/upstart/internal/event"
	"github.com/ubports/upstart/internal/eventop"
	"github.com/ubports/upstart/internal/trace"
)

// Goal is a Job's intent: move toward running (start) or toward waiting
// (stop).
type Goal int

const (
	Stop Goal = iota
	Start
)

func (g Goal) String() string {
	if g == Start {
		return "start"
	}
	return "stop"
}

// State is one of a Job's ten supervision states (§3, §4.4.1).
type State int

const (
	Waiting State = iota
	Starting
	PreStart
	Spawned
	PostStart
	Running
	PreStop
	Stopping
	Killed
	PostStop
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Starting:
		return "starting"
	case PreStart:
		return "pre-start"
	case Spawned:
		return "spawned"
	case PostStart:
		return "post-start"
	case Running:
		return "running"
	case PreStop:
		return "pre-stop"
	case Stopping:
		return "stopping"
	case Killed:
		return "killed"
	case PostStop:
		return "post-stop"
	default:
		return "unknown"
	}
}

// FailedProcess records which slot failed, or the synthetic "respawn" slot
// used when the runaway detector trips (§4.4.3).
type FailedProcess struct {
	Slot      Slot
	HasSlot   bool
	IsRespawn bool
}

// Job is one running (or starting/stopping) instance of a Config (§3).
type Job struct {
	Handle Handle
	Config *Config

	// Name is the expanded instance name, empty for non-instance jobs.
	Name string

	Goal  Goal
	State State

	PID [numSlots]int

	Env      *envtable.Table
	StartEnv *envtable.Table
	StopEnv  *envtable.Table

	// StopOn is this instance's own clone of Config.StopOn, tracking
	// match state independently of other instances (§4.5).
	StopOn *eventop.Operator

	Blocked  *event.Event
	Blocking []*event.Event

	Failed        bool
	FailedProcess FailedProcess
	ExitStatus    int
	ExitSignal    bool

	KillTimerArmed bool

	RespawnTime  int64 // unix seconds of the start of the current respawn window
	RespawnCount int

	Trace      trace.State
	TraceForks int
}

// NewJob constructs a fresh Job instance under config, in the rest state
// (waiting, goal stop), and registers it on the config's instance list.
func NewJob(config *Config, name string) *Job {
	j := &Job{
		Handle:   newHandle(),
		Config:   config,
		Name:     name,
		Goal:     Stop,
		State:    Waiting,
		Env:      envtable.New(),
		StartEnv: envtable.New(),
		StopEnv:  envtable.New(),
		StopOn:   eventop.Clone(config.StopOn),
	}
	config.addInstance(j)
	return j
}

// PIDAlive reports whether the process in slot is currently tracked.
func (j *Job) PIDAlive(slot Slot) bool { return j.PID[slot] > 0 }

// MainAlive reports whether the main process is currently tracked.
func (j *Job) MainAlive() bool { return j.PIDAlive(Main) }
