package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/metrics"
)

// TopologicalOrder returns every id with prerequisites before dependents.
// On a cyclic graph gonum's sort fails; the order then falls back to depth,
// then id, and ok is false.
func (g *Graph) TopologicalOrder() (order []string, ok bool) {
	defer metrics.Timer(metrics.TopologicalSort)()

	if len(g.selfLoops) == 0 {
		sorted, err := topo.Sort(g.g)
		if err == nil {
			// Edges point from dependent to prerequisite, so reverse.
			order = make([]string, 0, len(sorted))
			for i := len(sorted) - 1; i >= 0; i-- {
				order = append(order, g.nodeToID[sorted[i].ID()])
			}
			return order, true
		}
		debug.Log("topological sort failed: %v", err)
	}

	depths := g.Depths()
	order = g.IDs()
	sort.SliceStable(order, func(i, j int) bool {
		if depths[order[i]] != depths[order[j]] {
			return depths[order[i]] < depths[order[j]]
		}
		return order[i] < order[j]
	})
	return order, false
}

// Cycles returns the strongly connected components with more than one node,
// plus self-referencing tasks outside those components, each sorted. The
// list is sorted by first id.
func (g *Graph) Cycles() [][]string {
	defer metrics.Timer(metrics.CycleDetection)()

	var cycles [][]string
	inCycle := make(map[string]bool)
	for _, scc := range topo.TarjanSCC(g.g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			id := g.nodeToID[n.ID()]
			ids = append(ids, id)
			inCycle[id] = true
		}
		sort.Strings(ids)
		cycles = append(cycles, ids)
	}
	for id := range g.selfLoops {
		if !inCycle[id] {
			cycles = append(cycles, []string{id})
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	if len(cycles) > 0 {
		debug.Log("graph has %d prerequisite cycles", len(cycles))
	}
	return cycles
}

// HasCycles reports whether any prerequisite chain loops.
func (g *Graph) HasCycles() bool {
	return len(g.Cycles()) > 0
}

// Layers groups ids by depth; layer i holds the tasks of depth i in input
// order.
func (g *Graph) Layers() [][]string {
	if g.Len() == 0 {
		return nil
	}
	depths := g.Depths()
	deepest := 0
	for _, d := range depths {
		if d > deepest {
			deepest = d
		}
	}
	layers := make([][]string, deepest+1)
	for _, id := range g.order {
		d := depths[id]
		layers[d] = append(layers[d], id)
	}
	return layers
}
