package repair

import (
	"github.com/pkg/errors"

	"github.com/golang-dep-alumni/conflictrepair/internal/repairlog"
)

// Orchestrator parses the initial requirements input, wires the search's
// collaborators, runs the A* loop, and formats the result.
type Orchestrator struct {
	Resolver      ResolverDriver
	Catalog       VersionCatalog
	Extractor     DiagnosticExtractor // optional; nil disables Tier 1
	MaxIterations int
	Log           *repairlog.Logger
}

// Result is what Solve hands back to the CLI.
type Result struct {
	Solved     bool
	FinalReqs  RequirementSet
	Path       []pathStep
	Iterations int
	Reason     string
	Warnings   []string
}

// Solve parses input, runs the search to completion, and returns
// the outcome. An error is only ever returned for UnrecoverableConfigError-
// class conditions (missing resolver binary) or for input that yields no
// valid requirements at all.
func (o *Orchestrator) Solve(input string) (Result, error) {
	if o.Resolver == nil {
		return Result{}, errors.New("no resolver configured")
	}

	reqs, warnings := ParseRequirementsFile(input)
	if reqs.Len() == 0 {
		return Result{}, &InputError{Warnings: warnings}
	}

	o.Log.Verbosef("initial direct requirements: %s", reqs)
	for _, w := range warnings {
		o.Log.Warnf("%s", w)
	}

	actions := NewActionGenerator(o.Catalog, o.Log)
	engine := NewSearchEngine(o.Resolver, o.Extractor, actions, o.Log)
	if o.MaxIterations > 0 {
		engine.MaxIterations = o.MaxIterations
	}

	outcome := engine.Solve(reqs)

	result := Result{
		Solved:     outcome.Solved,
		FinalReqs:  outcome.FinalReqs,
		Path:       outcome.Path,
		Iterations: outcome.Iterations,
		Reason:     outcome.Reason,
		Warnings:   warnings,
	}

	if outcome.Solved {
		o.Log.Logf("solution found after %d iteration(s)\n", outcome.Iterations)
	} else {
		o.Log.Logf("no solution found after %d iteration(s): %s\n", outcome.Iterations, outcome.Reason)
	}

	return result, nil
}
