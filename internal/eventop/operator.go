// Package eventop implements upstart's EventOperator: a boolean tree of AND,
// OR and MATCH nodes used for a job's start_on/stop_on expressions (§4.2).
package eventop

import (
	"path/filepath"
	"strings"

	"github.com/ubports/upstart/internal/event"
)

// Kind is the tag of an Operator node.
type Kind int

const (
	And Kind = iota
	Or
	Match
)

// EnvPattern is one configured "KEY=pattern" (or bare "KEY") constraint on a
// MATCH node.
type EnvPattern struct {
	Key     string
	Pattern string
	// HasPattern is false for a bare "KEY" constraint, which only requires
	// the key to be present with any value.
	HasPattern bool
}

// Operator is one node of the boolean tree. AND/OR nodes use Children;
// MATCH nodes use Name, Args and EnvPatterns and, once matched, Captured
// and CapturedEnv.
type Operator struct {
	Kind     Kind
	Children []*Operator

	// MATCH fields.
	Name        string
	Args        []string
	EnvPatterns []EnvPattern

	// Evaluation state, populated by Handle and cleared by Reset.
	Value       bool
	Captured    *event.Event
	CapturedEnv []string
}

// Clone returns a deep copy of op's static shape (Kind, Children, Name,
// Args, EnvPatterns) with no evaluation state. Job instances clone a
// JobConfig's stop_on template so each instance tracks its own match
// state independently.
func Clone(op *Operator) *Operator {
	if op == nil {
		return nil
	}
	c := &Operator{
		Kind:        op.Kind,
		Name:        op.Name,
		Args:        append([]string(nil), op.Args...),
		EnvPatterns: append([]EnvPattern(nil), op.EnvPatterns...),
	}
	for _, child := range op.Children {
		c.Children = append(c.Children, Clone(child))
	}
	return c
}

// NewAnd returns an AND node over children.
func NewAnd(children ...*Operator) *Operator {
	return &Operator{Kind: And, Children: children}
}

// NewOr returns an OR node over children.
func NewOr(children ...*Operator) *Operator {
	return &Operator{Kind: Or, Children: children}
}

// NewMatch returns a MATCH node for name, with positional argument patterns
// args and environment constraints env.
func NewMatch(name string, args []string, env []EnvPattern) *Operator {
	return &Operator{Kind: Match, Name: name, Args: args, EnvPatterns: env}
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func globOrEqual(pattern, s string) bool {
	if isGlob(pattern) {
		ok, err := filepath.Match(pattern, s)
		return err == nil && ok
	}
	return pattern == s
}

// matches reports whether ev satisfies this MATCH node, per §4.2: name
// equality or glob, positional argument prefix match, and environment
// constraints.
func (op *Operator) matches(ev *event.Event) bool {
	if !globOrEqual(op.Name, ev.Name) {
		return false
	}

	if len(op.Args) > len(ev.Args) {
		return false
	}
	for i, pat := range op.Args {
		if !globOrEqual(pat, ev.Args[i]) {
			return false
		}
	}

	for _, ep := range op.EnvPatterns {
		val, ok := ev.EnvValue(ep.Key)
		if !ok {
			return false
		}
		if ep.HasPattern && !globOrEqual(ep.Pattern, val) {
			return false
		}
	}

	return true
}

// Handle descends the tree, testing ev against every MATCH node and
// recomputing AND/OR values from their children. A MATCH that succeeds
// captures a reference to ev and a copy of ev's environment at match time;
// it does not overwrite a previous capture on the same node. Handle
// returns the (possibly unchanged) root value.
func Handle(op *Operator, ev *event.Event) bool {
	if op == nil {
		return false
	}

	switch op.Kind {
	case Match:
		if op.Captured == nil && op.matches(ev) {
			op.Value = true
			op.Captured = ev
			op.CapturedEnv = append([]string(nil), ev.Env...)
		}
		return op.Value

	case And:
		all := len(op.Children) > 0
		for _, c := range op.Children {
			if !Handle(c, ev) {
				all = false
			}
		}
		op.Value = all
		return op.Value

	case Or:
		any := false
		for _, c := range op.Children {
			if Handle(c, ev) {
				any = true
			}
		}
		op.Value = any
		return op.Value

	default:
		return false
	}
}

// Reset clears Value and Captured/CapturedEnv recursively, decrementing the
// block count of any event this tree had captured.
func Reset(op *Operator) {
	if op == nil {
		return
	}
	op.Value = false
	if op.Captured != nil {
		op.Captured.Unblock()
		op.Captured = nil
		op.CapturedEnv = nil
	}
	for _, c := range op.Children {
		Reset(c)
	}
}
