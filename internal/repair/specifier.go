package repair

import (
	"strings"

	"github.com/pkg/errors"
)

type specOp int

const (
	opEQ specOp = iota
	opNE
	opLE
	opGE
	opLT
	opGT
	opCompatible // ~=
)

var opText = map[specOp]string{
	opEQ: "==", opNE: "!=", opLE: "<=", opGE: ">=", opLT: "<", opGT: ">", opCompatible: "~=",
}

// ops ordered longest-prefix-first so tokenizing never mistakes "<=" for "<".
var opsByLength = []struct {
	text string
	op   specOp
}{
	{"==", opEQ}, {"!=", opNE}, {"<=", opLE}, {">=", opGE}, {"~=", opCompatible},
	{"<", opLT}, {">", opGT},
}

// clause is one (op, version) constraint.
type clause struct {
	op         specOp
	version    Version
	wildcard   bool // version string ended in ".*"
	versionStr string
}

func (c clause) String() string {
	return opText[c.op] + c.versionStr
}

func (c clause) matches(v Version) bool {
	if c.wildcard {
		prefixLen := len(c.version.release)
		matchPrefix := releaseHasPrefix(v.release, c.version.release[:max(prefixLen-1, 0)])
		switch c.op {
		case opEQ:
			return matchPrefix
		case opNE:
			return !matchPrefix
		}
	}

	cmp := v.Compare(c.version)
	switch c.op {
	case opEQ:
		return cmp == 0
	case opNE:
		return cmp != 0
	case opLE:
		return cmp <= 0
	case opGE:
		return cmp >= 0
	case opLT:
		return cmp < 0
	case opGT:
		return cmp > 0
	case opCompatible:
		_, _, ok := c.version.ReleaseMajorMinor()
		if !ok {
			return cmp >= 0
		}
		prefix := c.version.release[:len(c.version.release)-1]
		return releaseHasPrefix(v.release, prefix) && cmp >= 0
	default:
		return false
	}
}

func releaseHasPrefix(release, prefix []int) bool {
	if len(release) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if release[i] != p {
			return false
		}
	}
	return true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// SpecifierSet is a parsed, comma-joined list of (op, version) clauses. An
// empty SpecifierSet matches every version.
type SpecifierSet struct {
	clauses []clause
	raw     string
}

// ParseSpecifierSet parses s as a comma-joined list of clauses
// `op version`, op one of {==, !=, <=, >=, <, >, ~=}. An empty string is
// a valid, always-matching specifier.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	if s == "" {
		return SpecifierSet{raw: s}, nil
	}

	var clauses []clause
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return SpecifierSet{}, errors.Errorf("empty clause in specifier %q", s)
		}
		c, err := parseClause(part)
		if err != nil {
			return SpecifierSet{}, errors.Wrapf(err, "in specifier %q", s)
		}
		clauses = append(clauses, c)
	}
	return SpecifierSet{clauses: clauses, raw: s}, nil
}

func parseClause(part string) (clause, error) {
	for _, cand := range opsByLength {
		if strings.HasPrefix(part, cand.text) {
			rest := strings.TrimSpace(part[len(cand.text):])
			if rest == "" {
				return clause{}, errors.Errorf("missing version after %q", cand.text)
			}
			versionStr := rest
			wildcard := strings.HasSuffix(rest, ".*")
			parseTarget := rest
			if wildcard {
				parseTarget = strings.TrimSuffix(rest, ".*") + ".0"
			}
			v, err := parseVersion(parseTarget)
			if err != nil {
				return clause{}, errors.Wrapf(err, "bad version %q", rest)
			}
			return clause{op: cand.op, version: v, wildcard: wildcard, versionStr: versionStr}, nil
		}
	}
	return clause{}, errors.Errorf("clause %q has no recognised operator", part)
}

// Matches reports whether v satisfies every clause in the set.
func (ss SpecifierSet) Matches(v Version) bool {
	for _, c := range ss.clauses {
		if !c.matches(v) {
			return false
		}
	}
	return true
}

// String returns the comma-joined clause text.
func (ss SpecifierSet) String() string { return ss.raw }

// Empty reports whether the set has no clauses (matches anything).
func (ss SpecifierSet) Empty() bool { return len(ss.clauses) == 0 }
