package analysis

import (
	"github.com/vanderheijden86/questwork/pkg/metrics"
)

// DepthCalculator computes prerequisite depth over one graph and memoises
// the result per node. It is not safe for concurrent use; Graph.Depth wraps
// a shared instance behind a mutex.
//
// depth(n) = 0 when n has no prerequisite inside the graph, otherwise
// 1 + max(depth(p)) over those prerequisites. A node met again on the
// current recursion stack counts as depth 0, so cycles terminate.
//
// Inside a cycle the result depends on which member is queried first: the
// first one reached gets the longest path around the cycle and the others
// are memoised from that walk. For P <-> Q, querying P first yields P=2,
// Q=1; querying Q first yields Q=2, P=1. Graph.Depths always starts from
// the nodes in input order, so its result is stable for a given input.
type DepthCalculator struct {
	g    *Graph
	memo map[string]int
}

// NewDepthCalculator returns a calculator with an empty memo.
func NewDepthCalculator(g *Graph) *DepthCalculator {
	return &DepthCalculator{g: g, memo: make(map[string]int, g.Len())}
}

// Depth returns the depth of id. Unknown ids have depth 0.
func (c *DepthCalculator) Depth(id string) int {
	if d, ok := c.memo[id]; ok {
		return d
	}
	return c.depth(id, make(map[string]bool))
}

func (c *DepthCalculator) depth(id string, onStack map[string]bool) int {
	if d, ok := c.memo[id]; ok {
		return d
	}
	if onStack[id] || !c.g.Has(id) {
		return 0
	}

	onStack[id] = true
	best := 0
	for _, pre := range c.g.prereqs[id] {
		if d := c.depth(pre, onStack) + 1; d > best {
			best = d
		}
	}
	delete(onStack, id)

	c.memo[id] = best
	return best
}

// Depth returns the memoised depth of id within this graph.
func (g *Graph) Depth(id string) int {
	g.depthMu.Lock()
	defer g.depthMu.Unlock()
	if g.depths == nil {
		g.depths = NewDepthCalculator(g)
	}
	return g.depths.Depth(id)
}

// Depths computes the depth of every node, visiting nodes in input order.
func (g *Graph) Depths() map[string]int {
	defer metrics.Timer(metrics.DepthCompute)()

	g.depthMu.Lock()
	defer g.depthMu.Unlock()
	if g.depths == nil {
		g.depths = NewDepthCalculator(g)
	}
	out := make(map[string]int, len(g.order))
	for _, id := range g.order {
		out[id] = g.depths.Depth(id)
	}
	return out
}

// MaxDepth returns the largest depth in the graph.
func (g *Graph) MaxDepth() int {
	deepest := 0
	for _, d := range g.Depths() {
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}
