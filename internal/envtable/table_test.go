package envtable

import (
	"os"
	"reflect"
	"testing"
)

func TestAddSetLookup(t *testing.T) {
	tbl := New()
	tbl.Add("FOO=bar", true)

	v, ok := tbl.Get("FOO")
	if !ok || v != "bar" {
		t.Fatalf("Get(FOO) = %q, %v; want bar, true", v, ok)
	}

	entry, ok := tbl.Lookup("FOO")
	if !ok || entry != "FOO=bar" {
		t.Fatalf("Lookup(FOO) = %q, %v; want FOO=bar, true", entry, ok)
	}
}

func TestAddReplacePolicy(t *testing.T) {
	tbl := New("FOO=bar")

	tbl.Add("FOO=baz", false)
	if v, _ := tbl.Get("FOO"); v != "bar" {
		t.Errorf("non-replace collision changed value to %q, want bar", v)
	}

	tbl.Add("FOO=baz", true)
	if v, _ := tbl.Get("FOO"); v != "baz" {
		t.Errorf("replace collision left value %q, want baz", v)
	}
}

func TestAddBareKeyFromProcessEnv(t *testing.T) {
	os.Setenv("UPSTART_TEST_VAR", "hello")
	defer os.Unsetenv("UPSTART_TEST_VAR")

	tbl := New()
	tbl.Add("UPSTART_TEST_VAR", true)

	v, ok := tbl.Get("UPSTART_TEST_VAR")
	if !ok || v != "hello" {
		t.Fatalf("Get = %q, %v; want hello, true", v, ok)
	}
}

func TestAddBareKeyAbsentDropped(t *testing.T) {
	os.Unsetenv("UPSTART_TEST_ABSENT_VAR")

	tbl := New()
	tbl.Add("UPSTART_TEST_ABSENT_VAR", true)

	if _, ok := tbl.Get("UPSTART_TEST_ABSENT_VAR"); ok {
		t.Fatal("absent bare key should not be added")
	}
}

func TestAddBareKeyAbsentRemovesExisting(t *testing.T) {
	os.Unsetenv("UPSTART_TEST_ABSENT_VAR2")

	tbl := New("UPSTART_TEST_ABSENT_VAR2=preset")
	tbl.Add("UPSTART_TEST_ABSENT_VAR2", true)

	if _, ok := tbl.Get("UPSTART_TEST_ABSENT_VAR2"); ok {
		t.Fatal("replace-mode bare key with absent source should remove existing entry")
	}
}

func TestAppend(t *testing.T) {
	a := New("FOO=1", "BAR=2")
	b := New("FOO=3", "BAZ=4")

	a.Append(b, true)

	if v, _ := a.Get("FOO"); v != "3" {
		t.Errorf("FOO = %q, want 3", v)
	}
	if v, _ := a.Get("BAR"); v != "2" {
		t.Errorf("BAR = %q, want 2", v)
	}
	if v, _ := a.Get("BAZ"); v != "4" {
		t.Errorf("BAZ = %q, want 4", v)
	}
}

func TestAddThenRemoveRoundTrip(t *testing.T) {
	tbl := New("A=1", "B=2")
	before := tbl.All()

	tbl.Add("C=3", true)
	idx := tbl.indexOf("C")
	tbl.entries = append(tbl.entries[:idx], tbl.entries[idx+1:]...)

	after := tbl.All()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("add-then-remove changed entry set: before=%v after=%v", before, after)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"FOO":     true,
		"_foo":    true,
		"foo_123": true,
		"1FOO":    false,
		"":        false,
		"FOO-BAR": false,
	}
	for key, want := range cases {
		if got := Valid(key); got != want {
			t.Errorf("Valid(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestAllValid(t *testing.T) {
	good := New("FOO=1", "BAR=2")
	if !good.AllValid() {
		t.Error("AllValid() = false, want true")
	}

	bareKeyTable := &Table{entries: []string{"FOO"}}
	if bareKeyTable.AllValid() {
		t.Error("AllValid() with bare key = true, want false")
	}

	badKeyTable := &Table{entries: []string{"1FOO=bar"}}
	if badKeyTable.AllValid() {
		t.Error("AllValid() with invalid key = true, want false")
	}
}

func TestGetn(t *testing.T) {
	tbl := New("FOO=bar")
	if v := tbl.Getn("FOO", "default"); v != "bar" {
		t.Errorf("Getn(FOO) = %q, want bar", v)
	}
	if v := tbl.Getn("MISSING", "default"); v != "default" {
		t.Errorf("Getn(MISSING) = %q, want default", v)
	}
}

func TestClone(t *testing.T) {
	tbl := New("FOO=bar")
	clone := tbl.Clone()
	clone.Set("FOO", "baz")

	if v, _ := tbl.Get("FOO"); v != "bar" {
		t.Errorf("original mutated by clone: %q", v)
	}
	if v, _ := clone.Get("FOO"); v != "baz" {
		t.Errorf("clone.Get(FOO) = %q, want baz", v)
	}
}
