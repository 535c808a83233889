package repair

import (
	"fmt"
	"sort"

	"github.com/golang-dep-alumni/conflictrepair/internal/repairlog"
)

// Successor is one candidate edit produced by the ActionGenerator:
// the resulting RequirementSet, a human-readable description of the
// edit, and its cost.
type Successor struct {
	Reqs   RequirementSet
	Action string
	Cost   float64
}

// ActionGenerator produces successor states from a conflicted node,
// driven by the node's ConflictInfo and bounded by the original direct
// set.
type ActionGenerator struct {
	Catalog VersionCatalog
	Config  CatalogConfig
	Log     *repairlog.Logger
}

// NewActionGenerator builds a generator with DefaultCatalogConfig.
func NewActionGenerator(catalog VersionCatalog, log *repairlog.Logger) *ActionGenerator {
	return &ActionGenerator{Catalog: catalog, Config: DefaultCatalogConfig(), Log: log}
}

// Generate returns successors for current, given the original direct set
// and current's ConflictInfo. Returns nil if the node is not conflicted.
func (g *ActionGenerator) Generate(current RequirementSet, originalDirect map[string]struct{}, info ConflictInfo) []Successor {
	if !info.IsConflict {
		return nil
	}

	target := targetNames(current, originalDirect, info)
	g.Log.Verbosef("targeting %v for modification", sortedKeys(target))

	var out []Successor
	out = append(out, g.versionChanges(current, target)...)
	out = append(out, g.loosen(current, target)...)
	out = append(out, g.pinTransitive(current, info)...)
	out = append(out, g.removeDirect(current, originalDirect, target)...)

	if len(out) == 0 {
		g.Log.Verbosef("no successors generated for conflicted node")
	}
	return out
}

// targetNames picks which names an action should touch: InvolvedDirect if
// non-empty, else the names in the current set that are also original
// direct names.
func targetNames(current RequirementSet, originalDirect map[string]struct{}, info ConflictInfo) map[string]struct{} {
	if len(info.InvolvedDirect) > 0 {
		return info.InvolvedDirect
	}
	out := make(map[string]struct{})
	for _, name := range current.Names() {
		if _, ok := originalDirect[name]; ok {
			out[name] = struct{}{}
		}
	}
	return out
}

// S1 — version change.
func (g *ActionGenerator) versionChanges(current RequirementSet, target map[string]struct{}) []Successor {
	var out []Successor
	for _, name := range sortedKeys(target) {
		req, ok := current.Get(name)
		if !ok {
			continue
		}
		hint := &req
		versions, err := Candidates(g.Catalog, name, hint, "", g.Config)
		if err != nil || len(versions) == 0 {
			continue
		}

		for _, v := range versions {
			newSpec := "==" + v
			if newSpec == req.Specifier() {
				continue
			}
			newReq, err := NewRequirement(name, newSpec)
			if err != nil {
				continue
			}
			newReqs := current.Without(name).With(newReq)
			action := fmt.Sprintf("Changed %s from '%s' to '%s'", name, req.Specifier(), newSpec)
			cost := versionChangeCost(req, newReq)
			out = append(out, Successor{Reqs: newReqs, Action: action, Cost: cost})
		}
	}
	return out
}

// S2 — loosen exact constraint to a ~=major.minor compatible release.
func (g *ActionGenerator) loosen(current RequirementSet, target map[string]struct{}) []Successor {
	var out []Successor
	for _, name := range sortedKeys(target) {
		req, ok := current.Get(name)
		if !ok || !req.IsExact() {
			continue
		}
		v, ok := req.ExactVersion()
		if !ok || len(v.release) < 2 {
			continue
		}
		newSpec := fmt.Sprintf("~=%d.%d", v.release[0], v.release[1])
		if newSpec == req.Specifier() {
			continue
		}
		newReq, err := NewRequirement(name, newSpec)
		if err != nil {
			continue
		}
		newReqs := current.Without(name).With(newReq)
		action := fmt.Sprintf("Loosened %s from '%s' to '%s'", name, req.Specifier(), newSpec)
		out = append(out, Successor{Reqs: newReqs, Action: action, Cost: costLoosen})
	}
	return out
}

// S3 — pin the parsed transitive culprit, trying its first two candidate
// versions.
func (g *ActionGenerator) pinTransitive(current RequirementSet, info ConflictInfo) []Successor {
	if info.Culprit == nil {
		return nil
	}
	name := info.Culprit.Name
	if current.Has(name) {
		return nil
	}

	versions, err := Candidates(g.Catalog, name, nil, info.Culprit.SpecifierHint, g.Config)
	if err != nil || len(versions) == 0 {
		return nil
	}
	if len(versions) > 2 {
		versions = versions[:2]
	}

	var out []Successor
	for _, v := range versions {
		spec := "==" + v
		pinned, err := NewRequirement(name, spec)
		if err != nil {
			continue
		}
		newReqs := current.With(pinned)
		action := fmt.Sprintf("Pinned transitive %s to '%s'", name, spec)
		out = append(out, Successor{Reqs: newReqs, Action: action, Cost: costPinTransitive})
	}
	return out
}

// S4 — remove a direct dependency, never emptying the set.
func (g *ActionGenerator) removeDirect(current RequirementSet, originalDirect map[string]struct{}, target map[string]struct{}) []Successor {
	var out []Successor
	for _, name := range sortedKeys(target) {
		if _, ok := originalDirect[name]; !ok {
			continue
		}
		if !current.Has(name) {
			continue
		}
		if current.Len() == 1 {
			continue
		}
		newReqs := current.Without(name)
		action := fmt.Sprintf("Removed direct %s", name)
		out = append(out, Successor{Reqs: newReqs, Action: action, Cost: costRemoveDirect})
	}
	return out
}

// Cost model constants, beyond the base cost of 1.0 folded into each
// function below.
const (
	costLoosen        = 1.0 + 1.2
	costPinTransitive = 1.0 + 3.0
	costRemoveDirect  = 1.0 + 5.0
)

// versionChangeCost prices a version change: a bump between two exact
// pins by how much of the version tuple moved, or a narrowing from a
// range down to one of the versions it already allowed.
func versionChangeCost(before, after Requirement) float64 {
	const base = 1.0

	if before.IsExact() && after.IsExact() {
		vb, okB := before.ExactVersion()
		va, okA := after.ExactVersion()
		if !okB || !okA {
			return base + 1.2
		}
		switch {
		case vb.Major() != va.Major():
			return base + 2.0
		case vb.Minor() != va.Minor():
			return base + 1.0
		case vb.Micro() != va.Micro():
			return base + 0.5
		default:
			return base + 0.25
		}
	}

	if !before.IsExact() && after.IsExact() && !before.SpecifierSet().Empty() {
		oldSpec, errSpec := ParseSpecifierSet(before.Specifier())
		newVersion, ok := after.ExactVersion()
		if errSpec == nil && ok {
			if oldSpec.Matches(newVersion) {
				return base + 0.1
			}
			return base + 1.7
		}
		return base + 1.2
	}

	return base + 1.5
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
