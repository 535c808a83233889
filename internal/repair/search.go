package repair

import (
	"container/heap"

	"github.com/golang-dep-alumni/conflictrepair/internal/repairlog"
)

// DefaultMaxIterations is the default iteration budget.
const DefaultMaxIterations = 50

// SearchEngine runs the A* loop over an arena of searchNodes.
type SearchEngine struct {
	Resolver      ResolverDriver
	Extractor     DiagnosticExtractor
	Actions       *ActionGenerator
	MaxIterations int
	Log           *repairlog.Logger

	arena *searchArena
	cache *EvaluationCache
}

// Outcome is the terminal result of a Solve call.
type Outcome struct {
	Solved     bool
	FinalReqs  RequirementSet
	Path       []pathStep
	Iterations int
	Reason     string // set when !Solved: "budget exhausted" or "frontier exhausted"
}

// NewSearchEngine builds an engine with DefaultMaxIterations.
func NewSearchEngine(resolver ResolverDriver, extractor DiagnosticExtractor, actions *ActionGenerator, log *repairlog.Logger) *SearchEngine {
	return &SearchEngine{
		Resolver:      resolver,
		Extractor:     extractor,
		Actions:       actions,
		MaxIterations: DefaultMaxIterations,
		Log:           log,
	}
}

// Solve runs A* from start (the parsed original direct set) until a
// resolver-accepted state is found, the frontier empties, or
// MaxIterations pops occur.
func (s *SearchEngine) Solve(start RequirementSet) Outcome {
	s.arena = newSearchArena()
	s.cache = newEvaluationCache()

	originalDirect := start.Names()

	root := s.arena.add(searchNode{reqs: start, g: 0, h: 0, parent: noParent, lastAction: "Initial state"})

	frontier := &nodeHeap{}
	heap.Init(frontier)
	heap.Push(frontier, frontierItem{handle: root, f: 0, g: 0, size: start.Len()})

	closed := make(map[string]float64)

	iterations := 0
	for frontier.Len() > 0 {
		if iterations >= s.MaxIterations {
			return Outcome{Solved: false, Iterations: iterations, Reason: "budget exhausted"}
		}

		item := heap.Pop(frontier).(frontierItem)
		node := s.arena.get(item.handle)
		key := node.reqs.Key()

		if best, ok := closed[key]; ok && node.g >= best {
			continue
		}
		closed[key] = node.g
		iterations++

		s.Log.Verbosef("iteration %d: evaluating %s (g=%.2f, h=%.2f)", iterations, node.reqs, node.g, node.h)

		eval := s.evaluate(node.reqs, originalDirect)
		if !eval.Conflict.IsConflict {
			s.Log.Verbosef("resolver accepted %s after %d iterations", node.reqs, iterations)
			return Outcome{
				Solved:     true,
				FinalReqs:  node.reqs,
				Path:       s.arena.reconstructPath(item.handle),
				Iterations: iterations,
			}
		}

		successors := s.Actions.Generate(node.reqs, originalDirect, eval.Conflict)
		h := Heuristic(eval.Conflict, len(originalDirect))

		for _, succ := range successors {
			childG := node.g + succ.Cost
			childKey := succ.Reqs.Key()
			if best, ok := closed[childKey]; ok && childG >= best {
				continue
			}

			child := searchNode{reqs: succ.Reqs, g: childG, h: h, parent: item.handle, lastAction: succ.Action}
			handle := s.arena.add(child)
			heap.Push(frontier, frontierItem{handle: handle, f: childG + h, g: childG, size: succ.Reqs.Len()})
		}
	}

	return Outcome{Solved: false, Iterations: iterations, Reason: "frontier exhausted"}
}

// evaluate runs the resolver (through the cache) and, on failure, the
// two-tier parser, returning a fully populated Evaluation.
func (s *SearchEngine) evaluate(reqs RequirementSet, originalDirect map[string]struct{}) Evaluation {
	if ev, ok := s.cache.Get(reqs); ok {
		return ev
	}

	res, err := s.Resolver.Run(reqs)
	if err != nil {
		// ResolverInvocation: treated as a failed evaluation implicating
		// every current direct name, so the search can still progress.
		info := ConflictInfo{
			IsConflict:     true,
			ErrorText:      err.Error(),
			InvolvedDirect: intersectNames(reqs.Names(), originalDirect),
		}
		ev := Evaluation{Success: false, Conflict: info}
		s.cache.Put(reqs, ev)
		return ev
	}

	var ev Evaluation
	if res.Success {
		ev = Evaluation{Success: true, Stdout: res.Stdout, Stderr: res.Stderr, Conflict: success()}
	} else {
		directNames := make([]string, 0, len(originalDirect))
		for n := range originalDirect {
			directNames = append(directNames, n)
		}
		info := ParseConflict(res.Stdout, res.Stderr, directNames, s.Extractor)
		ev = Evaluation{Success: false, Stdout: res.Stdout, Stderr: res.Stderr, Conflict: info}
	}
	s.cache.Put(reqs, ev)
	return ev
}

func intersectNames(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for n := range a {
		if _, ok := b[n]; ok {
			out[n] = struct{}{}
		}
	}
	return out
}

// frontierItem is one entry of the A* priority queue, keyed by (f, g,
// |reqs|): ties break on smaller g (prefer shallower), then on
// fewer requirements (prefer simpler states).
type frontierItem struct {
	handle nodeHandle
	f      float64
	g      float64
	size   int
}

type nodeHeap []frontierItem

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g < b.g
	}
	return a.size < b.size
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x interface{}) {
	*h = append(*h, x.(frontierItem))
}

func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
