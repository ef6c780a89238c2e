package engine

import (
	"testing"

	"github.com/ubports/upstart/internal/job"
)

// TestDispatchStopsBeforeStarting exercises §4.5's ordering guarantee: on
// one event that both a running job's stop_on and another config's
// start_on match, the running job is already driven into its shutdown
// path (killed, waiting on its main process to die) within the very
// same dispatch that creates and fully starts the new instance — the
// stop loop runs to completion before the start loop is even entered.
func TestDispatchStopsBeforeStarting(t *testing.T) {
	e, _, _ := newTestEngine()
	leader := simpleConfig(e, "leader", "boot", "switch")
	follower := simpleConfig(e, "follower", "switch", "")

	e.Queue.Emit("boot", nil, nil)
	e.RunPending()

	leaderJob, ok := e.Registry.Instance(leader, "")
	if !ok || leaderJob.State != job.Running {
		t.Fatalf("leader did not reach running before switch")
	}
	leaderPID := leaderJob.PID[job.Main]

	e.Queue.Emit("switch", nil, nil)
	e.RunPending()

	// The stop loop has already run leader all the way to killed (goal
	// stop, main process signalled, waiting only on the reaper) while the
	// start loop has run follower all the way to running, in this same
	// dispatch.
	if leaderJob.Goal != job.Stop || leaderJob.State != job.Killed {
		t.Fatalf("leader = goal:%v state:%v, want stop/killed", leaderJob.Goal, leaderJob.State)
	}
	followerJob, ok := e.Registry.Instance(follower, "")
	if !ok || followerJob.State != job.Running {
		t.Fatalf("follower should be running after switch, got ok=%v", ok)
	}

	// Reap leader's main process to let it finish its stop and confirm
	// it is destroyed rather than left behind.
	e.Machine.Reap(leaderJob, job.Main, 0, false, 0)
	e.RunPending()
	if leaderPID == 0 {
		t.Fatal("leader should have had a main pid recorded")
	}
	if len(leader.Instances()) != 0 {
		t.Fatalf("leader should have been destroyed, still has %d instance(s)", len(leader.Instances()))
	}
}

// TestDispatchSharedStartStopEventCreatesOneInstance covers a config
// whose start_on and stop_on both name the same event: the stop phase
// of the first dispatch runs before any instance exists (nothing to
// stop), so the start phase's match is the only effect, and the new
// instance runs to completion from that single emission.
func TestDispatchSharedStartStopEventCreatesOneInstance(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := simpleConfig(e, "svc", "restart", "restart")

	e.Queue.Emit("restart", nil, nil)
	e.RunPending()

	if len(cfg.Instances()) != 1 {
		t.Fatalf("expected exactly one instance after first restart dispatch, got %d", len(cfg.Instances()))
	}
	j := cfg.Instances()[0]
	if j.State != job.Running {
		t.Fatalf("state = %v, want running after restart settles", j.State)
	}
}

// TestDispatchNeverStartsOnNonMatchingEvent is a basic sanity check that
// an unrelated event leaves a configured job untouched.
func TestDispatchNeverStartsOnNonMatchingEvent(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := simpleConfig(e, "idle", "never-fires", "")

	e.Queue.Emit("something-else", nil, nil)
	e.RunPending()

	if len(cfg.Instances()) != 0 {
		t.Fatalf("expected no instance, got %d", len(cfg.Instances()))
	}
}
