package repair

// nodeHandle indexes into a searchArena. noParent marks "no parent" (the
// root's own parent).
type nodeHandle int

const noParent nodeHandle = -1

// searchNode is a single A* node: a candidate RequirementSet, its
// accumulated cost from the start, its heuristic estimate, and a back
// reference to the node it was generated from. Nodes are never mutated or
// freed once created; the search is a tree built by appending to a
// searchArena, so descendants on the frontier can always walk back to the
// root for path reconstruction even after their ancestors have been
// popped and expanded.
type searchNode struct {
	reqs       RequirementSet
	g          float64
	h          float64
	parent     nodeHandle
	lastAction string
}

func (n searchNode) f() float64 { return n.g + n.h }

// searchArena owns every node created during one Solve call.
type searchArena struct {
	nodes []searchNode
}

func newSearchArena() *searchArena {
	return &searchArena{}
}

// add appends a node and returns its handle.
func (a *searchArena) add(n searchNode) nodeHandle {
	a.nodes = append(a.nodes, n)
	return nodeHandle(len(a.nodes) - 1)
}

func (a *searchArena) get(h nodeHandle) searchNode {
	return a.nodes[h]
}

// pathStep is one entry of a reconstructed solution path.
type pathStep struct {
	Action string
	Reqs   RequirementSet
}

// reconstructPath walks parent handles from h back to the root, then
// reverses, so the result starts with "Initial state" and ends at h.
func (a *searchArena) reconstructPath(h nodeHandle) []pathStep {
	var rev []pathStep
	for h != noParent {
		n := a.get(h)
		rev = append(rev, pathStep{Action: n.lastAction, Reqs: n.reqs})
		h = n.parent
	}
	path := make([]pathStep, len(rev))
	for i, step := range rev {
		path[len(rev)-1-i] = step
	}
	return path
}
