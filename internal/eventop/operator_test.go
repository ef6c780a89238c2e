package eventop

import (
	"testing"

	"github.com/ubports/upstart/internal/event"
)

func TestMatchSimpleName(t *testing.T) {
	op := NewMatch("started", nil, nil)
	ev := event.New(1, "started", nil, nil)

	if !Handle(op, ev) {
		t.Fatal("expected match on equal name")
	}
	if op.Captured != ev {
		t.Fatal("expected captured event reference")
	}
}

func TestMatchGlobName(t *testing.T) {
	op := NewMatch("net-device-*", nil, nil)
	ev := event.New(1, "net-device-up", nil, nil)

	if !Handle(op, ev) {
		t.Fatal("expected glob match")
	}
}

func TestMatchNameMismatch(t *testing.T) {
	op := NewMatch("started", nil, nil)
	ev := event.New(1, "stopped", nil, nil)

	if Handle(op, ev) {
		t.Fatal("expected no match")
	}
}

func TestMatchPositionalArgs(t *testing.T) {
	op := NewMatch("mounted", []string{"/mnt", "ext4"}, nil)

	// Event with matching prefix and an extra trailing arg: allowed.
	ev := event.New(1, "mounted", []string{"/mnt", "ext4", "rw"}, nil)
	if !Handle(op, ev) {
		t.Fatal("expected match: event may have extra trailing args")
	}
}

func TestMatchPositionalArgsTooFewEventArgs(t *testing.T) {
	op := NewMatch("mounted", []string{"/mnt", "ext4"}, nil)
	ev := event.New(1, "mounted", []string{"/mnt"}, nil)

	if Handle(op, ev) {
		t.Fatal("configured args exceed event args: should not match")
	}
}

func TestMatchPositionalArgGlob(t *testing.T) {
	op := NewMatch("mounted", []string{"/mnt/*"}, nil)
	ev := event.New(1, "mounted", []string{"/mnt/data"}, nil)

	if !Handle(op, ev) {
		t.Fatal("expected glob arg match")
	}
}

func TestMatchEnvPattern(t *testing.T) {
	op := NewMatch("net-device-up", nil, []EnvPattern{
		{Key: "INTERFACE", Pattern: "eth*", HasPattern: true},
	})

	ev := event.New(1, "net-device-up", nil, []string{"INTERFACE=eth0"})
	if !Handle(op, ev) {
		t.Fatal("expected env pattern match")
	}

	ev2 := event.New(2, "net-device-up", nil, []string{"INTERFACE=lo"})
	if !Handle(op, ev2) || op.Captured != ev {
		t.Fatal("once a MATCH has captured, it should not re-evaluate")
	}
}

func TestMatchEnvPatternMismatch(t *testing.T) {
	op := NewMatch("net-device-up", nil, []EnvPattern{
		{Key: "INTERFACE", Pattern: "eth*", HasPattern: true},
	})
	ev := event.New(1, "net-device-up", nil, []string{"INTERFACE=lo"})

	if Handle(op, ev) {
		t.Fatal("expected no match: env pattern mismatch")
	}
}

func TestMatchBareEnvKeyAnyValue(t *testing.T) {
	op := NewMatch("started", nil, []EnvPattern{{Key: "JOB"}})

	ev := event.New(1, "started", nil, []string{"JOB=foo"})
	if !Handle(op, ev) {
		t.Fatal("expected match: bare key present")
	}
}

func TestMatchBareEnvKeyMissing(t *testing.T) {
	op := NewMatch("started", nil, []EnvPattern{{Key: "JOB"}})
	ev := event.New(1, "started", nil, nil)

	if Handle(op, ev) {
		t.Fatal("expected no match: bare key absent")
	}
}

func TestAndRequiresAllChildren(t *testing.T) {
	a := NewMatch("net-device-up", nil, nil)
	b := NewMatch("local-filesystems", nil, nil)
	root := NewAnd(a, b)

	Handle(root, event.New(1, "net-device-up", nil, nil))
	if root.Value {
		t.Fatal("AND should not be satisfied with only one child matched")
	}

	Handle(root, event.New(2, "local-filesystems", nil, nil))
	if !root.Value {
		t.Fatal("AND should be satisfied once both children matched")
	}
}

func TestOrSatisfiedByEitherChild(t *testing.T) {
	a := NewMatch("net-device-up", nil, nil)
	b := NewMatch("local-filesystems", nil, nil)
	root := NewOr(a, b)

	Handle(root, event.New(1, "local-filesystems", nil, nil))
	if !root.Value {
		t.Fatal("OR should be satisfied once either child matched")
	}
}

func TestResetClearsValueAndUnblocks(t *testing.T) {
	op := NewMatch("started", nil, nil)
	ev := event.New(1, "started", nil, nil)
	Handle(op, ev)

	_, list := Collect(op, "UPSTART_EVENTS")
	if len(list) != 1 {
		t.Fatalf("expected 1 collected event, got %d", len(list))
	}
	if ev.BlockCount() != 1 {
		t.Fatalf("expected block count 1 after collect, got %d", ev.BlockCount())
	}

	Reset(op)

	if op.Value {
		t.Fatal("Reset should clear Value")
	}
	if op.Captured != nil {
		t.Fatal("Reset should clear Captured")
	}
	if ev.BlockCount() != 0 {
		t.Fatalf("expected block count 0 after reset, got %d", ev.BlockCount())
	}
}

func TestCollectDepthFirstEnvAndNames(t *testing.T) {
	a := NewMatch("net-device-up", nil, nil)
	b := NewMatch("local-filesystems", nil, nil)
	root := NewAnd(a, b)

	evA := event.New(1, "net-device-up", nil, []string{"INTERFACE=eth0"})
	evB := event.New(2, "local-filesystems", nil, []string{"FSTYPE=ext4"})

	Handle(root, evA)
	Handle(root, evB)

	envOut, list := Collect(root, "UPSTART_EVENTS")
	if len(list) != 2 {
		t.Fatalf("expected 2 collected events, got %d", len(list))
	}
	if list[0] != evA || list[1] != evB {
		t.Fatal("expected depth-first, left-to-right collection order")
	}

	found := false
	for _, e := range envOut {
		if e == "UPSTART_EVENTS=net-device-up,local-filesystems" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected joined event-name env entry, got %v", envOut)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewMatch("net-device-up", nil, nil)
	root := NewAnd(a)

	clone := Clone(root)
	Handle(root, event.New(1, "net-device-up", nil, nil))

	if !root.Value {
		t.Fatal("original should have matched")
	}
	if clone.Value || clone.Children[0].Captured != nil {
		t.Fatal("clone should not share evaluation state with the original")
	}
}

func TestCollectUnmatchedSubtreeSkipped(t *testing.T) {
	a := NewMatch("net-device-up", nil, nil)
	b := NewMatch("local-filesystems", nil, nil)
	root := NewOr(a, b)

	ev := event.New(1, "net-device-up", nil, nil)
	Handle(root, ev)

	_, list := Collect(root, "UPSTART_EVENTS")
	if len(list) != 1 {
		t.Fatalf("expected only the matched branch collected, got %d", len(list))
	}
	if list[0] != ev {
		t.Fatal("expected the matched event")
	}
}
