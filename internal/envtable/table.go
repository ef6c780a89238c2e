// Package envtable implements upstart's environment table: an ordered list
// of KEY=VALUE entries with unique keys, plus shell-like $VAR expansion.
package envtable

import (
	"os"
	"strings"
)

// Table is an ordered list of "KEY=VALUE" strings with unique keys.
// The zero value is an empty table ready to use.
type Table struct {
	entries []string
}

// New returns a Table seeded with the given "KEY=VALUE" entries.
func New(entries ...string) *Table {
	t := &Table{}
	for _, e := range entries {
		t.Add(e, true)
	}
	return t
}

// splitKey returns the key portion of "KEY=VALUE" or "KEY".
func splitKey(entry string) (key string, hasValue bool, value string) {
	if idx := strings.IndexByte(entry, '='); idx >= 0 {
		return entry[:idx], true, entry[idx+1:]
	}
	return entry, false, ""
}

func (t *Table) indexOf(key string) int {
	for i, e := range t.entries {
		k, _, _ := splitKey(e)
		if k == key {
			return i
		}
	}
	return -1
}

// Add inserts entry, which may be "KEY=VALUE" or a bare "KEY".
//
// A bare key is resolved from the process environment; if absent it is
// simply dropped (not added). When replace is true and entry collides
// with an existing key, the existing entry is overwritten — unless entry
// is a bare key whose source is absent, in which case the existing entry
// is removed instead. When replace is false, a collision leaves the
// existing entry untouched.
func (t *Table) Add(entry string, replace bool) {
	key, hasValue, value := splitKey(entry)

	resolved := entry
	sourceAbsent := false
	if !hasValue {
		v, ok := os.LookupEnv(key)
		if !ok {
			sourceAbsent = true
		} else {
			resolved = key + "=" + v
			value = v
		}
	}
	_ = value

	idx := t.indexOf(key)
	if idx >= 0 {
		if !replace {
			return
		}
		if sourceAbsent {
			t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
			return
		}
		t.entries[idx] = resolved
		return
	}

	if sourceAbsent {
		return
	}
	t.entries = append(t.entries, resolved)
}

// Append adds every entry of other into t, honoring replace the same way
// Add does for each entry.
func (t *Table) Append(other *Table, replace bool) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		t.Add(e, replace)
	}
}

// Set is a convenience for Add(key+"="+value, true).
func (t *Table) Set(key, value string) {
	t.Add(key+"="+value, true)
}

// Lookup returns the full "KEY=VALUE" entry and whether key is present.
func (t *Table) Lookup(key string) (string, bool) {
	idx := t.indexOf(key)
	if idx < 0 {
		return "", false
	}
	return t.entries[idx], true
}

// Get returns the value for key and whether key is present.
func (t *Table) Get(key string) (string, bool) {
	idx := t.indexOf(key)
	if idx < 0 {
		return "", false
	}
	_, hasValue, value := splitKey(t.entries[idx])
	if !hasValue {
		return "", true
	}
	return value, true
}

// Getn is Get with a default value when the key is absent.
func (t *Table) Getn(key, def string) string {
	if v, ok := t.Get(key); ok {
		return v
	}
	return def
}

// All returns a copy of the underlying "KEY=VALUE" slice, in insertion order.
func (t *Table) All() []string {
	out := make([]string, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := &Table{entries: make([]string, len(t.entries))}
	copy(c.entries, t.entries)
	return c
}

// Valid reports whether key is a valid environment variable name: it must
// start with an ASCII letter or underscore, and continue with ASCII
// letters, digits, or underscores.
func Valid(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isDigit := c >= '0' && c <= '9'
		if i == 0 {
			if !isAlpha {
				return false
			}
			continue
		}
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// AllValid reports whether every entry is "KEY=VALUE" with a valid key.
func (t *Table) AllValid() bool {
	for _, e := range t.entries {
		key, hasValue, _ := splitKey(e)
		if !hasValue {
			return false
		}
		if !Valid(key) {
			return false
		}
	}
	return true
}
