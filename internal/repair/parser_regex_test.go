package repair

import (
	"errors"
	"testing"
)

func directSet(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func TestParseRegexResolutionImpossibleMarksAllDirect(t *testing.T) {
	stderr := "ResolutionImpossible: for help visit https://pip.pypa.io/"
	info := parseRegex("", stderr, directSet("flask", "jinja2"), formatEvalOutput("", stderr))
	if !info.IsConflict {
		t.Fatal("expected IsConflict true")
	}
	if len(info.InvolvedDirect) != 2 {
		t.Errorf("InvolvedDirect = %v, want both direct names", info.InvolvedDirectNames())
	}
}

func TestParseRegexDirectNameMention(t *testing.T) {
	stderr := "Could not find a version that satisfies the requirement flask==9.9.9"
	info := parseRegex("", stderr, directSet("flask", "jinja2"), formatEvalOutput("", stderr))
	if !info.IsConflict {
		t.Fatal("expected IsConflict true")
	}
	names := info.InvolvedDirectNames()
	// the per-name text scan finds flask literally mentioned; jinja2 is
	// never named in the message so it is not marked involved (the
	// marker-fallback path only fires when no name matched at all).
	if len(names) != 1 || names[0] != "flask" {
		t.Fatalf("InvolvedDirectNames() = %v, want [flask]", names)
	}
}

func TestParseRegexTransitiveCulprit(t *testing.T) {
	stderr := "The conflict is caused by:\n" +
		"    flask 2.0.0 depends on jinja2 <3.1,>=2.10.1\n" +
		"    some-other-package 1.0.0 depends on jinja2 >=3.0\n" +
		"\nTo fix this you could try to:\n"
	info := parseRegex("", stderr, directSet("flask"), formatEvalOutput("", stderr))
	if !info.IsConflict {
		t.Fatal("expected IsConflict true")
	}
	if info.Culprit == nil {
		t.Fatal("expected a transitive culprit to be found")
	}
	if info.Culprit.Name != "jinja2" {
		t.Errorf("Culprit.Name = %q, want jinja2", info.Culprit.Name)
	}
	if info.Culprit.SpecifierHint == "" {
		t.Error("expected a non-empty SpecifierHint")
	}
}

func TestParseRegexCulpritNeverDirect(t *testing.T) {
	stderr := "The conflict is caused by:\n" +
		"    flask 2.0.0 depends on jinja2 <3.1\n" +
		"    jinja2 3.0.0 depends on flask ==2.0.0\n"
	info := parseRegex("", stderr, directSet("flask", "jinja2"), formatEvalOutput("", stderr))
	if info.Culprit != nil {
		t.Errorf("Culprit = %+v, want nil since every mentioned package is direct", info.Culprit)
	}
}

func TestFindTransitiveCulpritRequiredByShape(t *testing.T) {
	block := "    jinja2 <3.1,>=2.10.1 is required by flask\n"
	culprit := findTransitiveCulprit(block, directSet("flask"))
	if culprit == nil {
		t.Fatal("expected a culprit")
	}
	if culprit.Name != "jinja2" {
		t.Errorf("Name = %q, want jinja2", culprit.Name)
	}
	if culprit.SpecifierHint != "<3.1,>=2.10.1" {
		t.Errorf("SpecifierHint = %q, want %q", culprit.SpecifierHint, "<3.1,>=2.10.1")
	}
}

func TestFindTransitiveCulpritSkipsDirectNames(t *testing.T) {
	block := "    flask 2.0.0 depends on jinja2 ==3.0.0\n"
	culprit := findTransitiveCulprit(block, directSet("flask", "jinja2"))
	if culprit != nil {
		t.Errorf("culprit = %+v, want nil because jinja2 is itself a direct name", culprit)
	}
}

func TestParseConflictFallsThroughOnExtractorError(t *testing.T) {
	stderr := "ResolutionImpossible"
	failing := failingExtractor{}
	info := ParseConflict("", stderr, []string{"flask"}, failing)
	if !info.IsConflict || len(info.InvolvedDirect) != 1 {
		t.Fatalf("expected Tier 2 fallback to mark flask involved, got %+v", info)
	}
}

type failingExtractor struct{}

func (failingExtractor) Extract(stdout, stderr string, directNames []string) (ExtractResult, error) {
	return ExtractResult{}, errors.New("extractor unavailable")
}
