package repair

import (
	"strings"
	"testing"
)

// stubResolver accepts a RequirementSet and reports success according to
// a caller-supplied predicate, producing pip-compile-shaped failure output
// (so parseRegex has something real to chew on) when the predicate rejects.
type stubResolver struct {
	accept func(RequirementSet) bool
	// stderr, when non-nil, builds the text returned on every rejection;
	// otherwise the bare string "ResolutionImpossible" is returned, which
	// names no requirement.
	stderr func(RequirementSet) string
}

func (r *stubResolver) Run(reqs RequirementSet) (ResolverResult, error) {
	if r.accept(reqs) {
		return ResolverResult{Success: true, Stdout: "resolved"}, nil
	}
	stderr := "ResolutionImpossible"
	if r.stderr != nil {
		stderr = r.stderr(reqs)
	}
	return ResolverResult{Success: false, Stderr: stderr}, nil
}

func mustReq(t *testing.T, name, specifier string) Requirement {
	t.Helper()
	r, err := NewRequirement(name, specifier)
	if err != nil {
		t.Fatalf("NewRequirement(%q, %q): %s", name, specifier, err)
	}
	return r
}

// The starting set already resolves.
func TestSearchScenarioAlreadySolved(t *testing.T) {
	start := NewRequirementSet(mustReq(t, "flask", "==2.0.0"))
	resolver := &stubResolver{accept: func(RequirementSet) bool { return true }}
	gen := NewActionGenerator(NewStaticCatalog(nil), testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())

	out := engine.Solve(start)
	if !out.Solved || out.Iterations != 1 {
		t.Fatalf("Outcome = %+v, want solved after 1 iteration", out)
	}
	if len(out.Path) != 1 {
		t.Fatalf("len(Path) = %d, want 1", len(out.Path))
	}
}

// Bumping the conflicted direct package's version resolves it.
func TestSearchScenarioVersionChangeResolves(t *testing.T) {
	start := NewRequirementSet(mustReq(t, "requests", "==2.29.0"))
	cat := NewStaticCatalog(map[string][]string{"requests": {"2.29.0", "2.31.0"}})

	resolver := &stubResolver{
		accept: func(reqs RequirementSet) bool {
			req, ok := reqs.Get("requests")
			return ok && req.Specifier() == "==2.31.0"
		},
		stderr: func(reqs RequirementSet) string {
			return "ResolutionImpossible: requests==2.29.0 conflicts with installed urllib3"
		},
	}
	gen := NewActionGenerator(cat, testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())

	out := engine.Solve(start)
	if !out.Solved {
		t.Fatalf("Outcome = %+v, want solved", out)
	}
	req, ok := out.FinalReqs.Get("requests")
	if !ok || req.Specifier() != "==2.31.0" {
		t.Fatalf("FinalReqs requests = %+v, want ==2.31.0", req)
	}
}

// Loosening an exact pin to ~=major.minor resolves it (no candidate
// exact version in the catalog would have worked).
func TestSearchScenarioLoosenResolves(t *testing.T) {
	start := NewRequirementSet(mustReq(t, "flask", "==2.0.3"))
	resolver := &stubResolver{
		accept: func(reqs RequirementSet) bool {
			req, ok := reqs.Get("flask")
			return ok && req.Specifier() == "~=2.0"
		},
	}
	gen := NewActionGenerator(NewStaticCatalog(nil), testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())

	out := engine.Solve(start)
	if !out.Solved {
		t.Fatalf("Outcome = %+v, want solved", out)
	}
	req, ok := out.FinalReqs.Get("flask")
	if !ok || req.Specifier() != "~=2.0" {
		t.Fatalf("FinalReqs flask = %+v, want ~=2.0", req)
	}
}

// The conflict names a transitive culprit, and pinning it resolves the
// set.
func TestSearchScenarioPinTransitiveResolves(t *testing.T) {
	start := NewRequirementSet(mustReq(t, "flask", "==2.0.0"))
	cat := NewStaticCatalog(map[string][]string{"jinja2": {"3.0.3"}})

	resolver := &stubResolver{
		accept: func(reqs RequirementSet) bool {
			return reqs.Has("jinja2")
		},
		stderr: func(RequirementSet) string {
			return "The conflict is caused by:\n" +
				"    flask 2.0.0 depends on jinja2 <3.1,>=2.10.1\n" +
				"    some-other-package 1.0.0 depends on jinja2 >=3.0\n"
		},
	}
	gen := NewActionGenerator(cat, testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())

	out := engine.Solve(start)
	if !out.Solved {
		t.Fatalf("Outcome = %+v, want solved", out)
	}
	if !out.FinalReqs.Has("jinja2") {
		t.Fatalf("FinalReqs = %v, want jinja2 pinned", out.FinalReqs.Sorted())
	}
}

// Nothing short of dropping a direct dependency resolves the set.
func TestSearchScenarioRemoveDirectResolves(t *testing.T) {
	start := NewRequirementSet(
		mustReq(t, "flask", "==2.0.0"),
		mustReq(t, "jinja2", "==3.0.0"),
	)
	resolver := &stubResolver{
		accept: func(reqs RequirementSet) bool {
			return reqs.Len() == 1 && reqs.Has("jinja2")
		},
	}
	gen := NewActionGenerator(NewStaticCatalog(nil), testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())
	engine.MaxIterations = 200

	out := engine.Solve(start)
	if !out.Solved {
		t.Fatalf("Outcome = %+v, want solved", out)
	}
	if out.FinalReqs.Has("flask") || !out.FinalReqs.Has("jinja2") {
		t.Fatalf("FinalReqs = %v, want flask removed and jinja2 kept", out.FinalReqs.Sorted())
	}
}

// No action the generator can produce ever satisfies the resolver; the
// search reports failure rather than looping forever. Here the frontier
// empties (after the loosened pin is also rejected) well inside the budget.
func TestSearchScenarioUnsolvableReportsFailure(t *testing.T) {
	start := NewRequirementSet(mustReq(t, "flask", "==2.0.0"))
	resolver := &stubResolver{accept: func(RequirementSet) bool { return false }}
	gen := NewActionGenerator(NewStaticCatalog(nil), testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())
	engine.MaxIterations = 5

	out := engine.Solve(start)
	if out.Solved {
		t.Fatalf("Outcome = %+v, want unsolved", out)
	}
	if out.Reason != "budget exhausted" && out.Reason != "frontier exhausted" {
		t.Errorf("Reason = %q, want budget or frontier exhaustion", out.Reason)
	}
	if out.Iterations == 0 {
		t.Error("expected at least one iteration to have run")
	}
}

// The evaluation cache must be consulted so that re-visiting an
// already-evaluated state doesn't re-invoke the resolver.
func TestSearchEngineCachesEvaluations(t *testing.T) {
	calls := 0
	start := NewRequirementSet(mustReq(t, "flask", "==2.0.0"))
	resolver := &stubResolver{
		accept: func(reqs RequirementSet) bool {
			calls++
			return strings.Contains(reqs.String(), "2.0.1")
		},
	}
	cat := NewStaticCatalog(map[string][]string{"flask": {"2.0.0", "2.0.1"}})
	gen := NewActionGenerator(cat, testLogger())
	engine := NewSearchEngine(resolver, nil, gen, testLogger())

	out := engine.Solve(start)
	if !out.Solved {
		t.Fatalf("Outcome = %+v, want solved", out)
	}
	firstCalls := calls
	if _, misses := engine.cache.Stats(); misses != firstCalls {
		t.Fatalf("resolver called %d times for %d cache misses, want one call per miss", firstCalls, misses)
	}

	// A second Solve starts with a fresh cache; it must still resolve
	// identically and deterministically.
	out2 := engine.Solve(start)
	if !out2.Solved || out2.FinalReqs.Key() != out.FinalReqs.Key() {
		t.Fatalf("second Solve() = %+v, want identical solved outcome", out2)
	}
}
