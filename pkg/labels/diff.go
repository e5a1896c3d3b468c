package labels

import "fmt"

// Mode selects how far reconciliation goes when a repository carries labels
// the desired set does not mention.
type Mode string

const (
	// ModeUpdate creates missing labels and updates mismatched ones, but
	// never deletes anything.
	ModeUpdate Mode = "update"
	// ModeReplace additionally deletes labels absent from the desired set.
	ModeReplace Mode = "replace"
)

// ParseMode validates a mode string from the CLI or configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUpdate, ModeReplace:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q, expected %q or %q", s, ModeUpdate, ModeReplace)
	}
}

// Update pairs the current state of a label with the state it should have.
// Before.Name differing from After.Name means a rename, addressed at the
// API by the old name.
type Update struct {
	Before Label `json:"before"`
	After  Label `json:"after"`
}

// Plan is the ordered set of operations that reconciles a repository's
// labels with a desired set. Creates apply first, then updates, then
// deletes. Each list is ordered lexicographically by label name.
type Plan struct {
	Create []Label  `json:"create,omitempty"`
	Update []Update `json:"update,omitempty"`
	Delete []Label  `json:"delete,omitempty"`
}

// Empty reports whether the plan contains no operations.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Ops returns the total number of operations in the plan.
func (p Plan) Ops() int {
	return len(p.Create) + len(p.Update) + len(p.Delete)
}

// Filter returns a copy of the plan restricted to operations touching the
// given label names. Updates match on either side so renames survive the
// filter.
func (p Plan) Filter(names ...string) Plan {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	var out Plan
	for _, l := range p.Create {
		if keep[l.Name] {
			out.Create = append(out.Create, l)
		}
	}
	for _, u := range p.Update {
		if keep[u.After.Name] || keep[u.Before.Name] {
			out.Update = append(out.Update, u)
		}
	}
	for _, l := range p.Delete {
		if keep[l.Name] {
			out.Delete = append(out.Delete, l)
		}
	}
	return out
}

// Diff computes the plan that transforms current into desired. Labels are
// matched by exact name; a label present in both sets but differing in
// color or description becomes an update. Deletes are produced only in
// ModeReplace. Diffing a set against itself yields an empty plan.
func Diff(current, desired Set, mode Mode) Plan {
	var plan Plan
	for _, name := range desired.Names() {
		want := desired[name]
		have, ok := current[name]
		if !ok {
			plan.Create = append(plan.Create, want)
			continue
		}
		if !have.Equal(want) {
			plan.Update = append(plan.Update, Update{Before: have, After: want})
		}
	}
	if mode == ModeReplace {
		for _, name := range current.Names() {
			if !desired.Contains(name) {
				plan.Delete = append(plan.Delete, current[name])
			}
		}
	}
	return plan
}
