package engine

import (
	"testing"

	"github.com/ubports/upstart/internal/job"
)

// TestNotifyJobStatusMintsIDOnlyForLiveJobs is the regression test for
// the id-reminting hazard: a destroyed instance must never cause
// notifyJobStatus to mint it a fresh wire id, and a live one must.
func TestNotifyJobStatusMintsIDOnlyForLiveJobs(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := simpleConfig(e, "task", "go", "")
	cfg.Task = true

	e.Queue.Emit("go", nil, nil)
	e.RunPending()

	j, ok := e.Registry.Instance(cfg, "")
	if !ok {
		t.Fatal("expected a live instance after starting")
	}
	if !e.isLive(j) {
		t.Fatal("freshly started instance should be live")
	}
	id := e.ids.idFor(j)
	if id == 0 {
		t.Fatal("expected a minted id for the live instance")
	}

	// Reap the task's main process to completion (a task job runs to
	// waiting and is destroyed on clean exit, since Goal flips to stop).
	e.Machine.Reap(j, job.Main, 0, false, 0)
	e.RunPending()

	if len(cfg.Instances()) != 0 {
		t.Fatal("task instance should have been destroyed after clean exit")
	}
	if e.isLive(j) {
		t.Fatal("destroyed instance must not be reported live")
	}

	next := e.ids.next
	e.notifyJobStatus(j)
	if e.ids.next != next {
		t.Fatalf("notifyJobStatus minted a new id for a destroyed job: next went from %d to %d", next, e.ids.next)
	}
	if _, ok := e.ids.ids[j]; ok {
		t.Fatal("destroyed job must not reappear in the id table")
	}
}

// TestIDTableReusesExistingID checks idFor returns the same id across
// repeated calls for a still-live job, and never recycles a released id.
func TestIDTableReusesExistingID(t *testing.T) {
	t2 := newIDTable()
	cfg := job.NewConfig("svc")
	a := job.NewJob(cfg, "")
	b := job.NewJob(cfg, "")

	idA1 := t2.idFor(a)
	idA2 := t2.idFor(a)
	if idA1 != idA2 {
		t.Fatalf("idFor(a) = %d then %d, want stable", idA1, idA2)
	}

	idB := t2.idFor(b)
	if idB == idA1 {
		t.Fatalf("two distinct jobs must not share an id")
	}

	t2.release(a)
	if _, ok := t2.lookup(idA1); ok {
		t.Fatal("released id should no longer resolve")
	}

	c := job.NewJob(cfg, "")
	idC := t2.idFor(c)
	if idC == idA1 {
		t.Fatalf("a released id must not be recycled, got %d reused as %d", idA1, idC)
	}
}
