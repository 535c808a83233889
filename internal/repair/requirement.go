package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Requirement is an immutable (name, specifier) pair naming a package and
// the versions of it that are acceptable. It is the atom the whole search
// operates over: RequirementSets are built from them, ActionGenerator
// produces new ones, and the external resolver is only ever handed a
// serialized list of them.
type Requirement struct {
	name      string
	specifier string
	spec      SpecifierSet
}

// nameOK matches the ASCII letters/digits/_.- grammar.
func nameOK(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// NewRequirement validates name and specifier and constructs a Requirement.
// An empty specifier means "any version".
func NewRequirement(name, specifier string) (Requirement, error) {
	name = strings.TrimSpace(name)
	if !nameOK(name) {
		return Requirement{}, errors.Errorf("invalid requirement name %q", name)
	}

	specifier = strings.TrimSpace(specifier)
	ss, err := ParseSpecifierSet(specifier)
	if err != nil {
		return Requirement{}, errors.Wrapf(err, "invalid specifier for %q", name)
	}

	return Requirement{name: name, specifier: specifier, spec: ss}, nil
}

// Name returns the package name.
func (r Requirement) Name() string { return r.name }

// Specifier returns the raw specifier string, possibly empty.
func (r Requirement) Specifier() string { return r.specifier }

// SpecifierSet returns the parsed specifier.
func (r Requirement) SpecifierSet() SpecifierSet { return r.spec }

// String returns "name"+"specifier", with no whitespace, e.g. "flask==2.0.0".
func (r Requirement) String() string {
	return r.name + r.specifier
}

// IsExact reports whether the specifier is a single "==" clause.
func (r Requirement) IsExact() bool {
	return len(r.spec.clauses) == 1 && r.spec.clauses[0].op == opEQ
}

// ExactVersion returns the parsed version and true when IsExact, else the
// zero Version and false.
func (r Requirement) ExactVersion() (Version, bool) {
	if !r.IsExact() {
		return Version{}, false
	}
	return r.spec.clauses[0].version, true
}

// Less orders Requirements by (name, specifier), matching the RequirementSet
// canonical ordering.
func (r Requirement) Less(other Requirement) bool {
	if r.name != other.name {
		return r.name < other.name
	}
	return r.specifier < other.specifier
}

// RequirementSet is a name-unique collection of Requirements. The zero value
// is not usable; construct with NewRequirementSet or With/Without.
type RequirementSet struct {
	byName map[string]Requirement
}

// NewRequirementSet builds a RequirementSet from a slice of Requirements.
// Later entries with a duplicate name overwrite earlier ones, mirroring how
// a requirements file with a repeated package name keeps the last mention.
func NewRequirementSet(reqs ...Requirement) RequirementSet {
	m := make(map[string]Requirement, len(reqs))
	for _, r := range reqs {
		m[r.name] = r
	}
	return RequirementSet{byName: m}
}

// Len returns the number of requirements in the set.
func (rs RequirementSet) Len() int { return len(rs.byName) }

// Get returns the requirement named n, if present.
func (rs RequirementSet) Get(n string) (Requirement, bool) {
	r, ok := rs.byName[n]
	return r, ok
}

// Has reports whether a requirement named n is present.
func (rs RequirementSet) Has(n string) bool {
	_, ok := rs.byName[n]
	return ok
}

// Sorted returns the members in canonical (name-sorted) order. The
// returned slice is a fresh copy safe for the caller to mutate.
func (rs RequirementSet) Sorted() []Requirement {
	out := make([]Requirement, 0, len(rs.byName))
	for _, r := range rs.byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Names returns the set of requirement names, unordered.
func (rs RequirementSet) Names() map[string]struct{} {
	out := make(map[string]struct{}, len(rs.byName))
	for n := range rs.byName {
		out[n] = struct{}{}
	}
	return out
}

// With returns a new RequirementSet with r added or replacing any existing
// requirement of the same name. The receiver is untouched.
func (rs RequirementSet) With(r Requirement) RequirementSet {
	m := make(map[string]Requirement, len(rs.byName)+1)
	for k, v := range rs.byName {
		m[k] = v
	}
	m[r.name] = r
	return RequirementSet{byName: m}
}

// Without returns a new RequirementSet with the named requirement removed.
// The receiver is untouched.
func (rs RequirementSet) Without(name string) RequirementSet {
	m := make(map[string]Requirement, len(rs.byName))
	for k, v := range rs.byName {
		if k != name {
			m[k] = v
		}
	}
	return RequirementSet{byName: m}
}

// Key returns the canonical identity of the set: its name-sorted members
// joined with newlines. It is what EvaluationCache and the closed set key
// on, and what is serialized to the resolver's input file.
func (rs RequirementSet) Key() string {
	sorted := rs.Sorted()
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = r.String()
	}
	return strings.Join(parts, "\n")
}

func (rs RequirementSet) String() string {
	return fmt.Sprintf("{%s}", strings.Join(strings.Split(rs.Key(), "\n"), ", "))
}

// ParseRequirementsFile parses a newline-delimited requirements stream:
// one requirement per non-comment, non-blank line, of shape
// `name (op version (, op version)*)? ("#" comment)?`. Malformed lines are
// reported as warnings but do not abort the parse; the returned set holds
// every line that did parse.
func ParseRequirementsFile(content string) (RequirementSet, []string) {
	var reqs []Requirement
	var warnings []string

	lines := strings.Split(content, "\n")
	for i, raw := range lines {
		line := raw
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, specifier, err := splitRequirementLine(line)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %s", i+1, err))
			continue
		}

		r, err := NewRequirement(name, specifier)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d (%q): %s", i+1, line, err))
			continue
		}
		reqs = append(reqs, r)
	}

	return NewRequirementSet(reqs...), warnings
}

// splitRequirementLine separates a trimmed, comment-stripped line into a
// package name and the remaining specifier text.
func splitRequirementLine(line string) (name, specifier string, err error) {
	i := 0
	for i < len(line) {
		r := line[i]
		if r == ' ' || r == '\t' || strings.ContainsRune("<>=!~,", rune(r)) {
			break
		}
		i++
	}
	if i == 0 {
		return "", "", errors.New("missing package name")
	}
	name = line[:i]
	specifier = strings.TrimSpace(line[i:])
	return name, specifier, nil
}
