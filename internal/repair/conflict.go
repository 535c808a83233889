package repair

import "sort"

// TransitiveCulprit names a non-direct package the parser has implicated
// in a conflict, together with a human-readable summary of the clashing
// constraints observed for it (e.g. "<2.0; >=2.1").
type TransitiveCulprit struct {
	Name          string
	SpecifierHint string
}

// ConflictInfo is the structured summary of a failed resolver evaluation.
// It is only ever produced for a failing evaluation, so IsConflict is true
// on every value a DiagnosticParser returns; the zero value (IsConflict
// false) represents a successful evaluation instead.
type ConflictInfo struct {
	IsConflict bool

	// ErrorText is the verbatim "STDOUT:\n"+stdout+"\nSTDERR:\n"+stderr,
	// preserved for diagnostics.
	ErrorText string

	// InvolvedDirect is always a subset of the original direct set.
	InvolvedDirect map[string]struct{}

	// Culprit is present only when the parser identified a specific
	// transitive package as the locus of the conflict. Its Name is never
	// a member of the original direct set.
	Culprit *TransitiveCulprit
}

func formatEvalOutput(stdout, stderr string) string {
	return "STDOUT:\n" + stdout + "\nSTDERR:\n" + stderr
}

// success builds the non-conflict ConflictInfo returned by a successful
// evaluation.
func success() ConflictInfo {
	return ConflictInfo{IsConflict: false}
}

// InvolvedDirectNames returns the involved-direct set as a sorted slice,
// handy for logging and for cost-model/heuristic inputs that want a count.
func (c ConflictInfo) InvolvedDirectNames() []string {
	out := make([]string, 0, len(c.InvolvedDirect))
	for n := range c.InvolvedDirect {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
