package repair

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a parsed PEP-440-like version: an optional epoch, a release
// segment tuple, and optional pre/post/dev/local qualifiers. Ordering
// follows the standard PEP 440 precedence: dev releases of a segment sort
// before that segment, pre-releases sort before the final release, and
// post-releases sort after it.
type Version struct {
	raw     string
	epoch   int
	release []int

	hasPre    bool
	preLetter string // normalized: "a", "b", or "rc"
	preNum    int

	hasPost bool
	postNum int

	hasDev bool
	devNum int

	local string
}

// versionPattern is PEP 440's VERSION_PATTERN, adapted for RE2 (Go's
// regexp has neither backreferences nor lookahead, and PEP 440's grammar
// needs neither).
var versionPattern = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

var preLetterNorm = map[string]string{
	"alpha": "a", "a": "a",
	"beta": "b", "b": "b",
	"c": "rc", "pre": "rc", "preview": "rc", "rc": "rc",
}

// ParseVersion parses s per the PEP-440-like grammar. It fails cleanly
// (returns an error, never panics) on malformed input.
func ParseVersion(s string) (Version, error) {
	v, err := parseVersion(s)
	if err != nil {
		return Version{}, err
	}
	v.release = trimTrailingZeros(v.release)
	return v, nil
}

// parseVersion does the grammar parse without trimming trailing-zero
// release segments. Clause anchors (specifier.go) need the untrimmed
// release so a wildcard/compatible prefix length matches what the user
// actually wrote; ParseVersion trims on top of this for ordinary,
// comparison-only versions.
func parseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Errorf("malformed version %q", s)
	}
	names := versionPattern.SubexpNames()
	g := make(map[string]string, len(names))
	for i, n := range names {
		if n != "" {
			g[n] = m[i]
		}
	}

	v := Version{raw: s}

	if g["epoch"] != "" {
		e, err := strconv.Atoi(g["epoch"])
		if err != nil {
			return Version{}, errors.Wrapf(err, "malformed epoch in %q", s)
		}
		v.epoch = e
	}

	for _, part := range strings.Split(g["release"], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, errors.Wrapf(err, "malformed release segment in %q", s)
		}
		v.release = append(v.release, n)
	}

	if g["pre_l"] != "" {
		v.hasPre = true
		v.preLetter = preLetterNorm[strings.ToLower(g["pre_l"])]
		if g["pre_n"] != "" {
			n, _ := strconv.Atoi(g["pre_n"])
			v.preNum = n
		}
	}

	if g["post"] != "" {
		v.hasPost = true
		switch {
		case g["post_n1"] != "":
			n, _ := strconv.Atoi(g["post_n1"])
			v.postNum = n
		case g["post_n2"] != "":
			n, _ := strconv.Atoi(g["post_n2"])
			v.postNum = n
		}
	}

	if g["dev_l"] != "" {
		v.hasDev = true
		if g["dev_n"] != "" {
			n, _ := strconv.Atoi(g["dev_n"])
			v.devNum = n
		}
	}

	v.local = strings.ToLower(g["local"])

	return v, nil
}

func trimTrailingZeros(release []int) []int {
	end := len(release)
	for end > 1 && release[end-1] == 0 {
		end--
	}
	return release[:end]
}

// String renders the version in a canonical, round-trippable form.
func (v Version) String() string {
	var b strings.Builder
	if v.epoch != 0 {
		b.WriteString(strconv.Itoa(v.epoch))
		b.WriteByte('!')
	}
	for i, n := range v.release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.hasPre {
		b.WriteString(v.preLetter)
		b.WriteString(strconv.Itoa(v.preNum))
	}
	if v.hasPost {
		b.WriteString(".post")
		b.WriteString(strconv.Itoa(v.postNum))
	}
	if v.hasDev {
		b.WriteString(".dev")
		b.WriteString(strconv.Itoa(v.devNum))
	}
	if v.local != "" {
		b.WriteByte('+')
		b.WriteString(v.local)
	}
	return b.String()
}

// ReleaseMajorMinor returns the first two release segments and true if the
// version has at least two segments (the precondition strategy S2 uses
// before loosening); otherwise it returns 0, 0, false.
func (v Version) ReleaseMajorMinor() (major, minor int, ok bool) {
	if len(v.release) < 2 {
		return 0, 0, false
	}
	return v.release[0], v.release[1], true
}

// Major returns the first release segment, or 0 if there is none.
func (v Version) Major() int {
	if len(v.release) == 0 {
		return 0
	}
	return v.release[0]
}

// Minor returns the second release segment, or 0 if there is none.
func (v Version) Minor() int {
	if len(v.release) < 2 {
		return 0
	}
	return v.release[1]
}

// Micro returns the third release segment, or 0 if there is none.
func (v Version) Micro() int {
	if len(v.release) < 3 {
		return 0
	}
	return v.release[2]
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, per PEP 440 precedence.
func (v Version) Compare(other Version) int {
	if c := intCmp(v.epoch, other.epoch); c != 0 {
		return c
	}
	if c := releaseCmp(v.release, other.release); c != 0 {
		return c
	}
	if c := v.preRank().cmp(other.preRank()); c != 0 {
		return c
	}
	if c := v.postRank().cmp(other.postRank()); c != 0 {
		return c
	}
	if c := v.devRank().cmp(other.devRank()); c != 0 {
		return c
	}
	return localCmp(v.local, other.local)
}

// Equal reports canonicalised equality: v.Compare(other) == 0.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// rank is a three-field comparable used for the pre/post/dev qualifier
// orderings, each of which has its own "present vs. absent" sentinel
// semantics per PEP 440 (absent pre+present dev sorts below every
// pre-release; absent pre+absent dev, i.e. a final release, sorts above
// every pre-release; absent post sorts below every post; absent dev sorts
// above every dev).
type rank struct{ a, b, c int }

func (r rank) cmp(o rank) int {
	if c := intCmp(r.a, o.a); c != 0 {
		return c
	}
	if c := intCmp(r.b, o.b); c != 0 {
		return c
	}
	return intCmp(r.c, o.c)
}

func (v Version) preRank() rank {
	switch {
	case v.hasPre:
		letterRank := map[string]int{"a": 0, "b": 1, "rc": 2}[v.preLetter]
		return rank{0, letterRank, v.preNum}
	case v.hasDev:
		return rank{-1, 0, 0}
	default:
		return rank{1, 0, 0}
	}
}

func (v Version) postRank() rank {
	if v.hasPost {
		return rank{1, v.postNum, 0}
	}
	return rank{0, 0, 0}
}

func (v Version) devRank() rank {
	if v.hasDev {
		return rank{0, v.devNum, 0}
	}
	return rank{1, 0, 0}
}

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func releaseCmp(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := intCmp(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// localCmp compares local-version labels segment by segment. Absence
// sorts below presence; within two present labels, a numeric segment
// outranks an alphanumeric one at the same position, per PEP 440.
func localCmp(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	as := strings.FieldsFunc(a, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	bs := strings.FieldsFunc(b, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if i >= len(as) {
			return -1
		}
		if i >= len(bs) {
			return 1
		}
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if c := intCmp(an, bn); c != 0 {
				return c
			}
		case aerr == nil:
			return 1
		case berr == nil:
			return -1
		default:
			if as[i] != bs[i] {
				if as[i] < bs[i] {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}
