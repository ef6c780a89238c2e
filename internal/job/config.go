// Package job implements upstart's job registry, state machine, and
// process supervision (§3, §4.3, §4.4).
package job

import (
	"github.com/ubports/upstart/internal/envtable"
	"github.com/ubports/upstart/internal/eventop"
)

// Slot names one of the five fixed process slots a JobConfig may define.
type Slot int

const (
	Main Slot = iota
	PreStart
	PostStart
	PreStop
	PostStop
	numSlots
)

func (s Slot) String() string {
	switch s {
	case Main:
		return "main"
	case PreStart:
		return "pre-start"
	case PostStart:
		return "post-start"
	case PreStop:
		return "pre-stop"
	case PostStop:
		return "post-stop"
	default:
		return "unknown"
	}
}

// Expectation describes how the engine decides the main process is "up"
// (§9 GLOSSARY, §4.4.4).
type Expectation int

const (
	// ExpectNone: up as soon as it is spawned.
	ExpectNone Expectation = iota
	// ExpectStop: up once it raises SIGSTOP.
	ExpectStop
	// ExpectDaemon: up after the traced process double-forks.
	ExpectDaemon
	// ExpectFork: up after the traced process forks once.
	ExpectFork
)

// Process is one slot's configured command.
type Process struct {
	// Command is the argv to execute (Command[0] is the program).
	// When Script is true, Command is instead a shell script body run
	// via "sh -c".
	Command []string
	Script  bool
}

// NormalExit is one exit code or signal number that does not count as job
// failure.
type NormalExit struct {
	Code   int
	Signal bool
}

// Console is the job's console mode, controlling where the child's
// standard streams are connected.
type Console int

const (
	ConsoleNone Console = iota
	ConsoleOutput
	ConsoleOwner
	ConsoleLog
)

// RLimit is one resource-limit table entry (setrlimit argument), applied
// between fork and exec (SPEC_FULL §C.4).
type RLimit struct {
	Resource int
	Soft     uint64
	Hard     uint64
}

// ProcessEnv holds the spawn-time process-environment fields carried by a
// JobConfig (§3): umask, nice, chroot, chdir, resource limits, and the
// default environment merged into every spawned process.
type ProcessEnv struct {
	Umask      int
	HasUmask   bool
	Nice       int
	HasNice    bool
	Chroot     string
	Chdir      string
	RLimits    []RLimit
	DefaultEnv *envtable.Table
}

// RespawnPolicy is a JobConfig's respawn configuration (§4.4.3).
type RespawnPolicy struct {
	Respawn         bool
	RespawnLimit    int
	RespawnInterval int // seconds
	// DisableRespawn, while set, suppresses every later respawn decision
	// (SPEC_FULL §D.3); a respawn already permitted before it was set is
	// not cancelled.
	DisableRespawn bool
}

// Config is the declarative definition of a job (§3's JobConfig).
type Config struct {
	Name        string
	Description string

	StartOn *eventop.Operator
	StopOn  *eventop.Operator

	Processes [numSlots]*Process

	Expectation Expectation
	KillTimeout int // seconds

	Task bool // task vs service; task jobs run to completion, services persist

	Instance     bool
	InstanceName string // template, expanded against collected env

	Respawn RespawnPolicy

	NormalExit []NormalExit

	Console Console

	EmitEvents []string

	Env ProcessEnv

	// instances is the set of live Job instances under this config.
	instances []*Job

	// Deleted defers destruction of the config until instances is empty
	// (§4.3).
	Deleted bool

	// replacement, if set, is installed once instances empties out.
	replacement *Config
}

// DefaultKillTimeout is the kill-timer duration (seconds) a JobConfig
// gets when its loader never sets one, matching upstart's own
// JOB_DEFAULT_KILL_TIMEOUT (init/job.c).
const DefaultKillTimeout = 5

// NewConfig returns a zero-value Config named name, ready to have its
// fields populated by a loader.
func NewConfig(name string) *Config {
	return &Config{
		Name:        name,
		Env:         ProcessEnv{DefaultEnv: envtable.New()},
		KillTimeout: DefaultKillTimeout,
	}
}

// Process returns the configured process for slot, or nil if undefined.
func (c *Config) Process(slot Slot) *Process { return c.Processes[slot] }

// IsNormalExit reports whether code (a raw exit status, not shifted) or a
// termination by signal sig counts as a normal (non-failing) exit, per the
// configured NormalExit set.
func (c *Config) IsNormalExit(code int, signal bool) bool {
	for _, ne := range c.NormalExit {
		if ne.Signal == signal && ne.Code == code {
			return true
		}
	}
	return false
}

// Instances returns the config's live instances.
func (c *Config) Instances() []*Job { return c.instances }

func (c *Config) addInstance(j *Job) { c.instances = append(c.instances, j) }

func (c *Config) removeInstance(j *Job) {
	for i, inst := range c.instances {
		if inst == j {
			c.instances = append(c.instances[:i], c.instances[i+1:]...)
			return
		}
	}
}
