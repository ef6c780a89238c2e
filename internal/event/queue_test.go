package event

import "testing"

func TestEmitMonotonicIDs(t *testing.T) {
	q := NewQueue()
	a := q.Emit("started", nil, nil)
	b := q.Emit("stopped", nil, nil)

	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
}

func TestPopPendingFIFO(t *testing.T) {
	q := NewQueue()
	q.Emit("first", nil, nil)
	q.Emit("second", nil, nil)

	ev, ok := q.PopPending()
	if !ok || ev.Name != "first" {
		t.Fatalf("expected first event, got %v, %v", ev, ok)
	}
	if ev.Phase() != Handling {
		t.Fatalf("expected Handling phase, got %v", ev.Phase())
	}

	ev2, ok := q.PopPending()
	if !ok || ev2.Name != "second" {
		t.Fatalf("expected second event, got %v, %v", ev2, ok)
	}

	if _, ok := q.PopPending(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestFinishWithNoBlockersFinalizesImmediately(t *testing.T) {
	q := NewQueue()
	started := q.Emit("started", []string{"myjob"}, nil)
	q.PopPending()

	q.Finish(started)

	if q.Len() != 1 {
		t.Fatalf("expected derived finished event queued, Len() = %d", q.Len())
	}
	derived, ok := q.PopPending()
	if !ok {
		t.Fatal("expected derived event")
	}
	if derived.Name != "started-finished" {
		t.Fatalf("derived.Name = %q, want started-finished", derived.Name)
	}
	if derived.Arg(0) != "myjob" {
		t.Fatalf("derived.Arg(0) = %q, want myjob", derived.Arg(0))
	}
	if v, ok := derived.EnvValue("RESULT"); !ok || v != "ok" {
		t.Fatalf("RESULT = %q, %v; want ok, true", v, ok)
	}
}

func TestFinishWithFailedFlagSetsResultFailed(t *testing.T) {
	q := NewQueue()
	ev := q.Emit("started", nil, nil)
	q.PopPending()
	ev.Failed = true

	q.Finish(ev)

	derived, _ := q.PopPending()
	if v, _ := derived.EnvValue("RESULT"); v != "failed" {
		t.Fatalf("RESULT = %q, want failed", v)
	}
}

func TestFinishWithBlockersDefersFinalization(t *testing.T) {
	q := NewQueue()
	ev := q.Emit("started", nil, nil)
	q.PopPending()
	ev.Block()

	q.Finish(ev)

	if q.Len() != 0 {
		t.Fatalf("expected no derived event yet, Len() = %d", q.Len())
	}

	ev.Unblock()
	q.Recheck(ev)

	if q.Len() != 1 {
		t.Fatalf("expected derived event after Recheck, Len() = %d", q.Len())
	}
}

func TestAliveReflectsBlockCountAndPhase(t *testing.T) {
	ev := New(1, "x", nil, nil)
	if !ev.Alive() {
		t.Fatal("pending event should be alive")
	}

	ev.SetPhase(Finished)
	if ev.Alive() {
		t.Fatal("finished event with zero block count should not be alive")
	}

	ev.Block()
	ev.SetPhase(Pending)
	if !ev.Alive() {
		t.Fatal("blocked event should be alive regardless of phase")
	}
}
