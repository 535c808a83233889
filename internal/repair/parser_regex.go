package repair

import (
	"regexp"
	"sort"
	"strings"
)

// conflictBlockPattern finds the "The conflict is caused by:" block
// common to pip-style resolver output, ending at the next blank line
// followed by guidance text, a fresh error, or end of output.
var conflictBlockPattern = regexp.MustCompile(
	`(?is)The conflict is caused by:(.*?)(?:\n\nTo fix this|Because no versions of|\n\s*pip freeze output:|\n\s*ERROR:|\n\s*During handling of the above exception|\z)`,
)

var dependsOnPattern = regexp.MustCompile(
	`(?im)^\s*([\w.-]+)\s+(?:[\w.?*-]+|\(any\))\s+depends on\s+([\w.-]+)\s*([<>=!~]=?[\w.,*+-]+(?:,\s*[<>=!~]=?[\w.,*+-]+)*)?`,
)

var requiredByPattern = regexp.MustCompile(
	`(?im)^\s*([\w.-]+)\s+([<>=!~]=?[\w.,*+-]+(?:,\s*[<>=!~]=?[\w.,*+-]+)*)?\s+is required by\s+([\w.-]+)`,
)

const (
	markerResolutionImpossible = "ResolutionImpossible"
	markerNoSatisfyingVersion  = "Could not find a version that satisfies the requirement"
)

// parseRegex is Tier 2: always-available pattern matching over
// raw resolver output. direct maps each original direct name to struct{}
// for O(1) membership tests; errorText is the already-formatted
// "STDOUT:...STDERR:..." blob, shared with Tier 1 so both tiers report
// the identical ErrorText.
func parseRegex(stdout, stderr string, direct map[string]struct{}, errorText string) ConflictInfo {
	full := errorText
	involved := make(map[string]struct{})

	for name := range direct {
		pattern := regexp.MustCompile(
			`(?i)\b` + regexp.QuoteMeta(name) + `\b(\s*(?:[<>=!~]=?|is)\s*[\w.,*+-]+(?:,\s*[<>=!~]=?\s*[\w.,*+-]+)*)?`,
		)
		if pattern.MatchString(full) {
			involved[name] = struct{}{}
		}
	}

	var culprit *TransitiveCulprit
	if m := conflictBlockPattern.FindStringSubmatch(full); m != nil {
		block := strings.TrimSpace(m[1])
		culprit = findTransitiveCulprit(block, direct)
		if culprit != nil && len(involved) == 0 {
			for name := range direct {
				involved[name] = struct{}{}
			}
		}
	}

	if len(involved) == 0 && (strings.Contains(full, markerResolutionImpossible) || strings.Contains(full, markerNoSatisfyingVersion)) {
		for name := range direct {
			involved[name] = struct{}{}
		}
	}

	return ConflictInfo{
		IsConflict:     true,
		ErrorText:      errorText,
		InvolvedDirect: involved,
		Culprit:        culprit,
	}
}

// findTransitiveCulprit scans a conflict block for "X depends on Y SPEC"
// and "Y SPEC is required by X" lines, collecting the set of specs
// observed for each non-direct Y, and returns the first Y with at least
// one non-empty spec (ties broken by taking the first one encountered).
func findTransitiveCulprit(block string, direct map[string]struct{}) *TransitiveCulprit {
	specsByName := make(map[string]map[string]struct{})
	var order []string
	addSpec := func(name, spec string) {
		if _, isDirect := direct[name]; isDirect {
			return
		}
		spec = strings.TrimSpace(spec)
		if spec == "" {
			return
		}
		if _, ok := specsByName[name]; !ok {
			specsByName[name] = make(map[string]struct{})
			order = append(order, name)
		}
		specsByName[name][spec] = struct{}{}
	}

	for _, m := range dependsOnPattern.FindAllStringSubmatch(block, -1) {
		depName, spec := m[2], m[3]
		addSpec(depName, spec)
	}
	for _, m := range requiredByPattern.FindAllStringSubmatch(block, -1) {
		depName, spec := m[1], m[2]
		addSpec(depName, spec)
	}

	for _, name := range order {
		specs := specsByName[name]
		if len(specs) == 0 {
			continue
		}
		sorted := make([]string, 0, len(specs))
		for s := range specs {
			sorted = append(sorted, s)
		}
		sort.Strings(sorted)
		return &TransitiveCulprit{Name: name, SpecifierHint: strings.Join(sorted, "; ")}
	}
	return nil
}
