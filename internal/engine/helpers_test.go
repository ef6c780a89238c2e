package engine

import (
	"github.com/ubports/upstart/internal/eventop"
	"github.com/ubports/upstart/internal/job"
)

// fakeSpawner always succeeds, handing out incrementing pids, mirroring
// internal/job's own state_machine_test.go fixture.
type fakeSpawner struct{ nextPID int }

func (s *fakeSpawner) Spawn(j *job.Job, slot job.Slot, proc *job.Process, trace bool) (int, error) {
	s.nextPID++
	return s.nextPID, nil
}

type fakeKiller struct{ killed []int }

func (k *fakeKiller) Kill(pid int) error {
	k.killed = append(k.killed, pid)
	return nil
}

// fakeWaiter never has anything reapable; tests that need reap behaviour
// drive Machine.Reap/Engine.reapOne directly instead.
type fakeWaiter struct{}

func (fakeWaiter) Wait() (WaitResult, bool) { return WaitResult{}, false }

type fakeTraceOps struct{}

func (fakeTraceOps) SetOptions(pid int) error      { return nil }
func (fakeTraceOps) Continue(pid int, sig int) error { return nil }
func (fakeTraceOps) Detach(pid int) error          { return nil }

func newTestEngine() (*Engine, *fakeSpawner, *fakeKiller) {
	sp := &fakeSpawner{nextPID: 100}
	kl := &fakeKiller{}
	e := New(sp, kl, fakeWaiter{}, fakeTraceOps{}, nil)
	return e, sp, kl
}

// simpleConfig returns a minimal, installed, non-instance, non-respawning
// task-less config named name with a trivial main process, started and
// stopped by the given event names.
func simpleConfig(e *Engine, name string, startOn, stopOn string) *job.Config {
	cfg := job.NewConfig(name)
	cfg.Processes[job.Main] = &job.Process{Command: []string{"/bin/" + name}}
	if startOn != "" {
		cfg.StartOn = eventop.NewMatch(startOn, nil, nil)
	}
	if stopOn != "" {
		cfg.StopOn = eventop.NewMatch(stopOn, nil, nil)
	}
	e.Registry.Install(cfg)
	return cfg
}
