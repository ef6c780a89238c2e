package eventop

import "github.com/ubports/upstart/internal/event"

// Collect walks the matched subtree of op in depth-first order. For every
// MATCH node holding a captured event, it appends the event's captured
// environment entries to envOut unchanged, appends the event itself to
// listOut, and increments the event's block count; once the walk is done
// one more envOut entry, "envName=" followed by the collected event names
// comma-joined, is added (§4.2). AND/OR nodes are
// visited in child order; an AND/OR node only contributes if its own Value
// is true, since only the matched subtree is collected.
func Collect(op *Operator, envName string) (envOut []string, listOut []*event.Event) {
	var names []string
	collect(op, envName, &envOut, &listOut, &names)
	if len(names) > 0 {
		envOut = append(envOut, envName+"="+joinComma(names))
	}
	return envOut, listOut
}

func collect(op *Operator, envName string, envOut *[]string, listOut *[]*event.Event, names *[]string) {
	if op == nil || !op.Value {
		return
	}

	switch op.Kind {
	case Match:
		if op.Captured == nil {
			return
		}
		op.Captured.Block()
		*listOut = append(*listOut, op.Captured)
		*envOut = append(*envOut, op.CapturedEnv...)
		*names = append(*names, op.Captured.Name)

	default:
		for _, c := range op.Children {
			collect(c, envName, envOut, listOut, names)
		}
	}
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
