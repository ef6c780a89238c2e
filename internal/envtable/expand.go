package envtable

import (
	"fmt"
	"strings"
)

// Error kinds raised by Expand, named by what they signal (§7).
var (
	ErrIllegalParam     = fmt.Errorf("illegal parameter")
	ErrUnknownParam     = fmt.Errorf("unknown parameter")
	ErrExpectedOperator = fmt.Errorf("expected operator")
	ErrMismatchedBraces = fmt.Errorf("mismatched braces")
)

// ExpandError wraps one of the sentinel errors above with the offending
// substring for diagnostics.
type ExpandError struct {
	Err  error
	Name string
}

func (e *ExpandError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %q", e.Err.Error(), e.Name)
}

func (e *ExpandError) Unwrap() error { return e.Err }

func isIdentByte(c byte, first bool) bool {
	isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
	if first {
		return isAlpha
	}
	return isAlpha || (c >= '0' && c <= '9')
}

// Expand performs recursive, shell-like substitution of $NAME and
// ${NAME...} forms in str against t, returning a newly owned string. See
// §4.1 for the full grammar.
func (t *Table) Expand(str string) (string, error) {
	out, _, err := expandUntil(str, 0, t, "")
	if err != nil {
		return "", err
	}
	return out, nil
}

// expandUntil scans str starting at i, copying literal characters through
// and substituting $-references, stopping at the end of str or at the
// first byte in stop that is not consumed as part of a reference. It
// returns the expanded text and the index of the stopping byte (or
// len(str)).
func expandUntil(str string, i int, t *Table, stop string) (string, int, error) {
	var out []byte
	for i < len(str) {
		c := str[i]
		if c != '$' {
			if stop != "" && strings.IndexByte(stop, c) >= 0 {
				break
			}
			out = append(out, c)
			i++
			continue
		}

		if i+1 >= len(str) {
			out = append(out, '$')
			i++
			continue
		}

		next := str[i+1]
		switch {
		case next == '{':
			val, ni, err := expandBraced(str, i+2, t)
			if err != nil {
				return "", 0, err
			}
			out = append(out, val...)
			i = ni
		case isIdentByte(next, true):
			j := i + 1
			for j < len(str) && isIdentByte(str[j], false) {
				j++
			}
			name := str[i+1 : j]
			val, ok := t.Get(name)
			if !ok {
				return "", 0, &ExpandError{Err: ErrUnknownParam, Name: name}
			}
			out = append(out, val...)
			i = j
		default:
			// Not a recognized form; '$' is literal.
			out = append(out, '$')
			i++
		}
	}
	return string(out), i, nil
}

// expandBraced handles the "${...}" forms, with str[i] positioned just
// after "${". It returns the substituted value and the index just past
// the closing '}'.
func expandBraced(str string, i int, t *Table) (string, int, error) {
	// "${}" is a literal '$'.
	if i < len(str) && str[i] == '}' {
		return "$", i + 1, nil
	}

	nameStart := i
	name, i, err := expandUntil(str, i, t, "}:-+")
	if err != nil {
		return "", 0, err
	}
	if !Valid(name) {
		raw := str[nameStart:i]
		if raw == "" {
			raw = name
		}
		return "", 0, &ExpandError{Err: ErrIllegalParam, Name: raw}
	}

	if i >= len(str) {
		return "", 0, &ExpandError{Err: ErrMismatchedBraces}
	}

	op, ignoreEmpty, argStart := byte(0), false, i
	switch {
	case str[i] == '}':
		val, ok := t.Get(name)
		if !ok {
			return "", 0, &ExpandError{Err: ErrUnknownParam, Name: name}
		}
		return val, i + 1, nil

	case str[i] == ':' && i+1 < len(str) && str[i+1] == '-':
		op, ignoreEmpty, argStart = '-', true, i+2
	case str[i] == ':' && i+1 < len(str) && str[i+1] == '+':
		op, ignoreEmpty, argStart = '+', true, i+2
	case str[i] == ':':
		return "", 0, &ExpandError{Err: ErrExpectedOperator}
	case str[i] == '-':
		op, ignoreEmpty, argStart = '-', false, i+1
	case str[i] == '+':
		op, ignoreEmpty, argStart = '+', false, i+1
	default:
		return "", 0, &ExpandError{Err: ErrExpectedOperator}
	}

	arg, ai, err := expandUntil(str, argStart, t, "}")
	if err != nil {
		return "", 0, err
	}
	if ai >= len(str) || str[ai] != '}' {
		return "", 0, &ExpandError{Err: ErrMismatchedBraces}
	}
	ai++

	val, ok := t.Get(name)
	useArg := !ok || (ignoreEmpty && val == "")

	switch op {
	case '-':
		if useArg {
			return arg, ai, nil
		}
		return val, ai, nil
	default: // '+'
		if useArg {
			return "", ai, nil
		}
		return arg, ai, nil
	}
}
