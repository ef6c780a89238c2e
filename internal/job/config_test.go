package job

import (
	"testing"

	"github.com/ubports/upstart/internal/eventop"
)

func TestIsNormalExitMatchesCodeNotSignal(t *testing.T) {
	cfg := NewConfig("x")
	cfg.NormalExit = []NormalExit{{Code: 2}, {Code: 15, Signal: true}}

	cases := []struct {
		code   int
		signal bool
		want   bool
	}{
		{0, false, false},
		{2, false, true},
		{2, true, false}, // same code but signalled, not listed as such
		{15, true, true},
		{15, false, false},
	}
	for _, c := range cases {
		if got := cfg.IsNormalExit(c.code, c.signal); got != c.want {
			t.Errorf("IsNormalExit(%d, %v) = %v, want %v", c.code, c.signal, got, c.want)
		}
	}
}

func TestAddRemoveInstance(t *testing.T) {
	cfg := NewConfig("x")
	j1 := NewJob(cfg, "a")
	j2 := NewJob(cfg, "b")

	if len(cfg.Instances()) != 2 {
		t.Fatalf("len(Instances) = %d, want 2", len(cfg.Instances()))
	}

	cfg.removeInstance(j1)
	insts := cfg.Instances()
	if len(insts) != 1 || insts[0] != j2 {
		t.Fatalf("Instances after remove = %v, want [j2]", insts)
	}
}

func TestNewJobClonesStopOnIndependently(t *testing.T) {
	cfg := NewConfig("x")
	cfg.StopOn = eventop.NewMatch("foo", nil, nil)

	j1 := NewJob(cfg, "a")
	j2 := NewJob(cfg, "b")

	if j1.StopOn == cfg.StopOn || j2.StopOn == cfg.StopOn {
		t.Fatal("each job must get its own StopOn clone, not share the config's")
	}
	if j1.StopOn == j2.StopOn {
		t.Fatal("sibling instances must not share a StopOn clone")
	}
}
