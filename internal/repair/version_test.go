package repair

import "testing"

func TestParseVersionBasic(t *testing.T) {
	v, err := ParseVersion("2.31.0")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Major() != 2 || v.Minor() != 31 || v.Micro() != 0 {
		t.Errorf("got (%d,%d,%d), want (2,31,0)", v.Major(), v.Minor(), v.Micro())
	}
	if v.String() != "2.31" {
		t.Errorf("String() = %q, want %q (trailing zero trimmed)", v.String(), "2.31")
	}
}

func TestParseVersionMalformed(t *testing.T) {
	if _, err := ParseVersion("not-a-version"); err == nil {
		t.Fatal("expected error for malformed version")
	}
}

func TestVersionCompareOrdering(t *testing.T) {
	cases := []struct{ lesser, greater string }{
		{"1.0.0", "2.0.0"},
		{"1.0.0", "1.1.0"},
		{"1.0.0", "1.0.1"},
		{"1.0.0a1", "1.0.0"},
		{"1.0.0.dev1", "1.0.0a1"},
		{"1.0.0", "1.0.0.post1"},
		{"1.0.0a1", "1.0.0b1"},
		{"1.0.0b1", "1.0.0rc1"},
		{"1!1.0.0", "2!0.0.1"},
	}
	for _, c := range cases {
		lv, err := ParseVersion(c.lesser)
		if err != nil {
			t.Fatalf("parsing %q: %s", c.lesser, err)
		}
		gv, err := ParseVersion(c.greater)
		if err != nil {
			t.Fatalf("parsing %q: %s", c.greater, err)
		}
		if lv.Compare(gv) >= 0 {
			t.Errorf("%q should sort before %q", c.lesser, c.greater)
		}
		if gv.Compare(lv) <= 0 {
			t.Errorf("%q should sort after %q", c.greater, c.lesser)
		}
	}
}

func TestVersionEqualCanonicalizes(t *testing.T) {
	a, _ := ParseVersion("1.0")
	b, _ := ParseVersion("1.0.0")
	if !a.Equal(b) {
		t.Errorf("1.0 and 1.0.0 should be equal after canonicalisation")
	}
}
