package repair

import "testing"

func TestNewRequirementValid(t *testing.T) {
	r, err := NewRequirement("requests", "==2.31.0")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if r.Name() != "requests" {
		t.Errorf("Name() = %q, want %q", r.Name(), "requests")
	}
	if r.String() != "requests==2.31.0" {
		t.Errorf("String() = %q, want %q", r.String(), "requests==2.31.0")
	}
	if !r.IsExact() {
		t.Errorf("IsExact() = false, want true")
	}
	v, ok := r.ExactVersion()
	if !ok || v.String() != "2.31.0" {
		t.Errorf("ExactVersion() = (%v, %v), want (2.31.0, true)", v, ok)
	}
}

func TestNewRequirementInvalidName(t *testing.T) {
	if _, err := NewRequirement("bad name!", "==1.0"); err == nil {
		t.Fatal("expected error for invalid name")
	}
}

func TestNewRequirementInvalidSpecifier(t *testing.T) {
	if _, err := NewRequirement("requests", "===2.0"); err == nil {
		t.Fatal("expected error for invalid specifier")
	}
}

func TestRequirementSetUniqueNames(t *testing.T) {
	a, _ := NewRequirement("flask", "==2.0.0")
	b, _ := NewRequirement("flask", "==2.1.0")
	rs := NewRequirementSet(a, b)
	if rs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", rs.Len())
	}
	got, _ := rs.Get("flask")
	if got.Specifier() != "==2.1.0" {
		t.Errorf("later duplicate should win, got %q", got.Specifier())
	}
}

func TestRequirementSetWithWithout(t *testing.T) {
	a, _ := NewRequirement("flask", "==2.0.0")
	rs := NewRequirementSet(a)

	b, _ := NewRequirement("jinja2", "==3.0.0")
	withB := rs.With(b)
	if withB.Len() != 2 {
		t.Fatalf("With() len = %d, want 2", withB.Len())
	}
	if rs.Len() != 1 {
		t.Fatalf("With() mutated receiver: len = %d, want 1", rs.Len())
	}

	without := withB.Without("flask")
	if without.Len() != 1 || without.Has("flask") {
		t.Fatalf("Without() = %+v, want only jinja2", without.Sorted())
	}
}

func TestRequirementSetKeyIsCanonical(t *testing.T) {
	a, _ := NewRequirement("flask", "==2.0.0")
	b, _ := NewRequirement("jinja2", "==3.0.0")

	set1 := NewRequirementSet(a, b)
	set2 := NewRequirementSet(b, a)

	if set1.Key() != set2.Key() {
		t.Errorf("Key() not order-independent: %q vs %q", set1.Key(), set2.Key())
	}
}

func TestParseRequirementsFile(t *testing.T) {
	content := "requests==2.31.0\n" +
		"# a comment\n" +
		"\n" +
		"urllib3==2.0.7  # trailing comment\n" +
		"!!!bad-line\n"

	rs, warnings := ParseRequirementsFile(content)
	if rs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (got %v)", rs.Len(), rs.Sorted())
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !rs.Has("requests") || !rs.Has("urllib3") {
		t.Fatalf("missing expected requirements: %v", rs.Sorted())
	}
}
