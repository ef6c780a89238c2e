package job

import "testing"

func TestRegistryGetAndAll(t *testing.T) {
	r := NewRegistry()
	cfg := NewConfig("a")
	r.Install(cfg)

	got, ok := r.Get("a")
	if !ok || got != cfg {
		t.Fatalf("Get(a) = %v, %v, want %v, true", got, ok, cfg)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get(missing) should report not found")
	}
	if len(r.All()) != 1 {
		t.Fatalf("len(All) = %d, want 1", len(r.All()))
	}
}

func TestInstallOverwritesConfigWithNoInstances(t *testing.T) {
	r := NewRegistry()
	r.Install(NewConfig("a"))

	v2 := NewConfig("a")
	v2.Description = "v2"
	r.Install(v2)

	got, _ := r.Get("a")
	if got != v2 {
		t.Fatal("installing over a config with no instances should overwrite immediately")
	}
}

func TestInstallDefersReplacementUntilInstancesEmpty(t *testing.T) {
	r := NewRegistry()
	v1 := NewConfig("a")
	r.Install(v1)
	j := NewJob(v1, "")

	v2 := NewConfig("a")
	r.Install(v2)

	got, _ := r.Get("a")
	if got != v1 {
		t.Fatal("existing config with a live instance must stay installed until drained")
	}
	if !v1.Deleted {
		t.Fatal("outgoing config should be marked deleted")
	}

	r.OnInstanceDestroyed(j)

	got, _ = r.Get("a")
	if got != v2 {
		t.Fatal("replacement config should be installed once the old one drains")
	}
}

func TestInstallDropsDeletedConfigWithNoReplacement(t *testing.T) {
	r := NewRegistry()
	v1 := NewConfig("a")
	r.Install(v1)
	j := NewJob(v1, "")
	v1.Deleted = true

	r.OnInstanceDestroyed(j)

	if _, ok := r.Get("a"); ok {
		t.Fatal("config with no replacement should be dropped once its instances drain")
	}
}

func TestFindByPID(t *testing.T) {
	r := NewRegistry()
	cfg := NewConfig("a")
	r.Install(cfg)
	j := NewJob(cfg, "")
	j.PID[Main] = 4242

	found, slot, ok := r.FindByPID(4242)
	if !ok || found != j || slot != Main {
		t.Fatalf("FindByPID(4242) = %v, %v, %v, want %v, main, true", found, slot, ok, j)
	}
	if _, _, ok := r.FindByPID(1); ok {
		t.Fatal("FindByPID should report not found for an untracked pid")
	}
}

func TestInstanceSingleInstanceConfig(t *testing.T) {
	r := NewRegistry()
	cfg := NewConfig("single")
	r.Install(cfg)

	if _, ok := r.Instance(cfg, ""); ok {
		t.Fatal("no instance should be found before one is created")
	}
	j := NewJob(cfg, "")
	got, ok := r.Instance(cfg, "")
	if !ok || got != j {
		t.Fatal("single-instance config should match its one instance regardless of name")
	}
}

func TestInstanceTemplateConfigMatchesByName(t *testing.T) {
	r := NewRegistry()
	cfg := NewConfig("tty")
	cfg.Instance = true
	cfg.InstanceName = "$TTY"
	r.Install(cfg)

	jA := NewJob(cfg, "tty1")
	jB := NewJob(cfg, "tty2")

	got, ok := r.Instance(cfg, "tty2")
	if !ok || got != jB {
		t.Fatalf("Instance(tty2) = %v, %v, want %v, true", got, ok, jB)
	}
	got, ok = r.Instance(cfg, "tty1")
	if !ok || got != jA {
		t.Fatalf("Instance(tty1) = %v, %v, want %v, true", got, ok, jA)
	}
	if _, ok := r.Instance(cfg, "tty3"); ok {
		t.Fatal("no instance should match an unrelated name")
	}
}

func TestInstanceUnlimitedConfigNeverMatches(t *testing.T) {
	r := NewRegistry()
	cfg := NewConfig("conn")
	cfg.Instance = true // no InstanceName: unlimited instances
	r.Install(cfg)
	NewJob(cfg, "")

	if _, ok := r.Instance(cfg, ""); ok {
		t.Fatal("unlimited-instance config must never report an existing match")
	}
}
