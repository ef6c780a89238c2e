package job

import "testing"

func TestCatchRunawayDisabledWhenLimitOrIntervalZero(t *testing.T) {
	cfg := NewConfig("x")
	cfg.Respawn = RespawnPolicy{Respawn: true, RespawnLimit: 0, RespawnInterval: 10}
	j := NewJob(cfg, "")

	for i := 0; i < 100; i++ {
		if catchRunaway(j, int64(i)) {
			t.Fatalf("iteration %d: runaway detector should be disabled when RespawnLimit is 0", i)
		}
	}

	cfg.Respawn = RespawnPolicy{Respawn: true, RespawnLimit: 2, RespawnInterval: 0}
	j2 := NewJob(cfg, "")
	for i := 0; i < 100; i++ {
		if catchRunaway(j2, int64(i)) {
			t.Fatalf("iteration %d: runaway detector should be disabled when RespawnInterval is 0", i)
		}
	}
}

func TestCatchRunawayResetsWindowAfterInterval(t *testing.T) {
	cfg := NewConfig("x")
	cfg.Respawn = RespawnPolicy{Respawn: true, RespawnLimit: 1, RespawnInterval: 10}
	j := NewJob(cfg, "")

	if catchRunaway(j, 0) {
		t.Fatal("first respawn should never trip the detector")
	}
	if j.RespawnCount != 1 || j.RespawnTime != 0 {
		t.Fatalf("RespawnCount/RespawnTime = %d/%d, want 1/0", j.RespawnCount, j.RespawnTime)
	}

	// Well past the interval: window resets instead of accumulating.
	if catchRunaway(j, 1000) {
		t.Fatal("a respawn long after the window elapsed should reset, not trip")
	}
	if j.RespawnCount != 1 || j.RespawnTime != 1000 {
		t.Fatalf("RespawnCount/RespawnTime = %d/%d, want 1/1000 after reset", j.RespawnCount, j.RespawnTime)
	}
}

func TestCatchRunawayTripsOnceLimitExceeded(t *testing.T) {
	cfg := NewConfig("x")
	cfg.Respawn = RespawnPolicy{Respawn: true, RespawnLimit: 2, RespawnInterval: 10}
	j := NewJob(cfg, "")

	if catchRunaway(j, 0) {
		t.Fatal("1st respawn in window should be permitted")
	}
	if catchRunaway(j, 1) {
		t.Fatal("2nd respawn in window should be permitted (count == limit)")
	}
	if !catchRunaway(j, 2) {
		t.Fatal("3rd respawn in window should trip (count > limit)")
	}
}

func TestReapPreStartFailureStopsGoal(t *testing.T) {
	m, _, _, _ := newTestMachine()
	cfg := NewConfig("x")
	j := NewJob(cfg, "")
	j.Goal = Start
	j.State = PreStart
	j.PID[PreStart] = 555

	m.Reap(j, PreStart, 1, false, 0)

	if !j.Failed {
		t.Fatal("non-zero pre-start exit should fail the job")
	}
	if !j.FailedProcess.HasSlot || j.FailedProcess.Slot != PreStart {
		t.Fatalf("FailedProcess = %+v, want pre-start", j.FailedProcess)
	}
	if j.Goal != Stop {
		t.Fatalf("goal = %v, want stop", j.Goal)
	}
	if j.PID[PreStart] != 0 {
		t.Fatal("reaped pid should be cleared")
	}
}

func TestReapPostStartFailureIsIgnored(t *testing.T) {
	m, _, _, _ := newTestMachine()
	cfg := NewConfig("x")
	cfg.Processes[Main] = &Process{Command: []string{"/bin/true"}}
	j := NewJob(cfg, "")
	j.Goal = Start
	j.State = PostStart
	j.PID[Main] = 42
	j.PID[PostStart] = 555

	m.Reap(j, PostStart, 1, false, 0)

	if j.Failed {
		t.Fatal("a failing post-start hook must not fail the job (§4.4.2)")
	}
	if j.Goal != Start {
		t.Fatalf("goal = %v, want unchanged start", j.Goal)
	}
}

// TestReapHoldsAtPostStartWhileHookStillRunning checks the guard in Reap:
// if the main process exits while still in post-start and its post-start
// hook is still running, the job must not advance until the hook is also
// reaped.
func TestReapHoldsAtPostStartWhileHookStillRunning(t *testing.T) {
	m, _, _, _ := newTestMachine()
	cfg := NewConfig("x")
	cfg.Processes[Main] = &Process{Command: []string{"/bin/true"}}
	cfg.Processes[PostStart] = &Process{Command: []string{"/bin/post-start-hook"}}
	j := NewJob(cfg, "")
	j.Goal = Start
	j.State = PostStart
	j.PID[Main] = 42
	j.PID[PostStart] = 555

	m.Reap(j, Main, 0, false, 0)

	if j.State != PostStart {
		t.Fatalf("state = %v, want post-start (hook still running, must not advance yet)", j.State)
	}
	if j.PID[Main] != 0 {
		t.Fatal("reaped main pid should be cleared")
	}
}
