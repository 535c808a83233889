package repair

// ParseConflict implements the two-tier strategy: Tier 1 (an
// optional DiagnosticExtractor) is tried first when extractor is non-nil;
// any error or schema violation falls through to Tier 2 (always
// available pattern matching). The result always has IsConflict true,
// since this is only ever called after a failed resolver evaluation.
func ParseConflict(stdout, stderr string, directNames []string, extractor DiagnosticExtractor) ConflictInfo {
	errorText := formatEvalOutput(stdout, stderr)
	direct := make(map[string]struct{}, len(directNames))
	for _, n := range directNames {
		direct[n] = struct{}{}
	}

	if extractor != nil {
		if info, ok := fromExtractor(extractor, stdout, stderr, directNames, direct, errorText); ok {
			return info
		}
	}

	return parseRegex(stdout, stderr, direct, errorText)
}

// fromExtractor runs Tier 1 and reports whether it produced a usable
// result; a false return means the caller should fall through to Tier 2.
func fromExtractor(extractor DiagnosticExtractor, stdout, stderr string, directNames []string, direct map[string]struct{}, errorText string) (ConflictInfo, bool) {
	res, err := extractor.Extract(stdout, stderr, directNames)
	if err != nil {
		return ConflictInfo{}, false
	}

	involved := make(map[string]struct{})
	for _, n := range res.InvolvedDirect {
		if _, ok := direct[n]; ok {
			involved[n] = struct{}{}
		}
	}

	info := ConflictInfo{
		IsConflict:     true,
		ErrorText:      errorText,
		InvolvedDirect: involved,
	}

	if res.CulpritName != "" {
		if _, isDirect := direct[res.CulpritName]; !isDirect {
			info.Culprit = &TransitiveCulprit{Name: res.CulpritName, SpecifierHint: res.CulpritSpecs}
		}
	}

	return info, true
}
