package engine

import (
	"testing"

	"github.com/ubports/upstart/internal/job"
)

// TestBeginQuiesceSkipsWaitWhenNoJobCaresAboutSessionEnd covers the
// quiesce_event_match heuristic: if nothing's start_on names
// session-end, the wait phase is skipped outright and quiesce moves
// straight to the kill phase.
func TestBeginQuiesceSkipsWaitWhenNoJobCaresAboutSessionEnd(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "plain", "go", "")

	e.BeginQuiesce(1000)

	if e.quiesce.phase != QuiesceKill {
		t.Fatalf("phase = %v, want kill (no job starts on session-end)", e.quiesce.phase)
	}
}

// TestBeginQuiesceWaitsWhenAJobStartsOnSessionEnd covers the opposite
// case: a config whose start_on names session-end earns the full wait
// phase before quiesce moves on to killing everything else.
func TestBeginQuiesceWaitsWhenAJobStartsOnSessionEnd(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "cleanup", SessionEndEvent, "")

	e.BeginQuiesce(1000)

	if e.quiesce.phase != QuiesceWait {
		t.Fatalf("phase = %v, want wait", e.quiesce.phase)
	}
}

// TestBeginQuiesceDisablesRespawnForEveryConfig checks the §4.7 step that
// replaced the old no-op Engine-level flag: every config's respawn
// decision is suppressed for its next reap once quiesce starts.
func TestBeginQuiesceDisablesRespawnForEveryConfig(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := simpleConfig(e, "svc", "go", "")
	cfg.Respawn.Respawn = true

	e.BeginQuiesce(1000)

	if !cfg.Respawn.DisableRespawn {
		t.Fatal("expected DisableRespawn to be set on every config once quiesce begins")
	}
}

// TestBeginQuiesceStopsAlreadyRunningJobs checks that a job already
// running when quiesce starts is immediately signalled to stop, even
// during the wait phase (it doesn't care about session-end, so there is
// no reason to let it keep running).
func TestBeginQuiesceStopsAlreadyRunningJobs(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "waiter", SessionEndEvent, "") // earns the wait phase
	svc := simpleConfig(e, "svc", "go", "")

	e.Queue.Emit("go", nil, nil)
	e.RunPending()
	j, ok := e.Registry.Instance(svc, "")
	if !ok || j.State != job.Running {
		t.Fatal("svc should be running before quiesce begins")
	}

	e.BeginQuiesce(1000)

	if j.Goal != job.Stop {
		t.Fatalf("goal = %v, want stop once quiesce starts", j.Goal)
	}
}

// TestQuiesceTickAdvancesFromWaitToKillOnTimeout checks the periodic
// tick's wait-phase timeout transition, independent of whether any job
// is still running.
func TestQuiesceTickAdvancesFromWaitToKillOnTimeout(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "cleanup", SessionEndEvent, "")

	e.BeginQuiesce(1000)
	if e.quiesce.phase != QuiesceWait {
		t.Fatal("expected wait phase")
	}

	e.QuiesceTick(1000 + quiesceDefaultWait - 1)
	if e.quiesce.phase != QuiesceWait {
		t.Fatal("should still be waiting just before the deadline")
	}

	e.QuiesceTick(1000 + quiesceDefaultWait)
	if e.quiesce.phase != QuiesceKill {
		t.Fatal("should have moved to kill phase once the wait runtime elapsed")
	}
}

// TestQuiesceTickFinishesOnceNothingIsRunning checks finishQuiesce fires
// OnQuiesceComplete exactly once nothing is left running.
func TestQuiesceTickFinishesOnceNothingIsRunning(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "plain", "go", "")

	done := 0
	e.OnQuiesceComplete = func() { done++ }

	e.BeginQuiesce(1000)
	if e.quiesce.phase != QuiesceKill {
		t.Fatal("expected immediate kill phase (no session-end waiters)")
	}
	e.QuiesceTick(1001)
	if done != 1 {
		t.Fatalf("OnQuiesceComplete called %d times, want 1", done)
	}

	// A second tick after completion must not call it again.
	e.QuiesceTick(1002)
	if done != 1 {
		t.Fatalf("OnQuiesceComplete called again after completion: %d", done)
	}
}

// TestQuiesceTickTimesOutKillPhase checks the kill phase's own deadline:
// if a job refuses to die, quiesce still finishes once maxKillWait
// elapses.
func TestQuiesceTickTimesOutKillPhase(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := simpleConfig(e, "stubborn", "go", "")
	cfg.KillTimeout = 3

	e.Queue.Emit("go", nil, nil)
	e.RunPending()
	if _, ok := e.Registry.Instance(cfg, ""); !ok {
		t.Fatal("expected a running instance")
	}

	done := 0
	e.OnQuiesceComplete = func() { done++ }

	e.BeginQuiesce(2000)
	if e.quiesce.maxKillWait != 3 {
		t.Fatalf("maxKillWait = %d, want 3 (cfg.KillTimeout)", e.quiesce.maxKillWait)
	}

	e.QuiesceTick(2003)
	if done != 0 {
		t.Fatal("must not finish before maxKillWait elapses while the job is still alive")
	}
	e.QuiesceTick(2004)
	if done != 1 {
		t.Fatal("expected quiesce to finish once the kill phase's own deadline passed")
	}
}
