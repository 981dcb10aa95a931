package analysis

import (
	"errors"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// ErrUnknownTask is returned when an operation names a task id that is not in
// the graph.
var ErrUnknownTask = errors.New("unknown task")

// Graph is the prerequisite graph of one node set. It is built once and is
// read-only afterwards; the depth memo is the only lazily filled state.
type Graph struct {
	g        *simple.DirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	taskMap  map[string]model.Task
	order    []string // input order of ids

	// prerequisites that resolve inside the set, in declaration order,
	// deduplicated. Self references are kept here but not in g.
	prereqs   map[string][]string
	selfLoops map[string]bool

	depthMu sync.Mutex
	depths  *DepthCalculator
}

// NewGraph builds the graph of tasks. Later duplicates of an id are ignored.
// Prerequisites that do not resolve to a task in the set are dropped.
func NewGraph(tasks []model.Task) *Graph {
	defer metrics.Timer(metrics.GraphBuild)()

	g := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(tasks))
	nodeToID := make(map[int64]string, len(tasks))
	taskMap := make(map[string]model.Task, len(tasks))
	order := make([]string, 0, len(tasks))

	// 1. Add nodes
	for _, task := range tasks {
		if _, dup := taskMap[task.ID]; dup {
			debug.Log("duplicate task id %s ignored", task.ID)
			continue
		}
		taskMap[task.ID] = task
		order = append(order, task.ID)
		n := g.NewNode()
		g.AddNode(n)
		idToNode[task.ID] = n.ID()
		nodeToID[n.ID()] = task.ID
	}

	// 2. Add edges: a task (u) depends on its prerequisite (v), edge u -> v.
	prereqs := make(map[string][]string, len(order))
	selfLoops := make(map[string]bool)
	dangling := 0
	for _, id := range order {
		u := idToNode[id]
		var resolved []string
		seen := make(map[string]bool)
		for _, pre := range taskMap[id].RequirementIDs() {
			v, ok := idToNode[pre]
			if !ok {
				dangling++
				continue
			}
			if seen[pre] {
				continue
			}
			seen[pre] = true
			resolved = append(resolved, pre)
			if pre == id {
				// gonum simple graphs reject self edges
				selfLoops[id] = true
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
		}
		prereqs[id] = resolved
	}
	if dangling > 0 {
		debug.Log("graph: ignored %d dangling prerequisite references", dangling)
	}

	return &Graph{
		g:         g,
		idToNode:  idToNode,
		nodeToID:  nodeToID,
		taskMap:   taskMap,
		order:     order,
		prereqs:   prereqs,
		selfLoops: selfLoops,
	}
}

// Subgraph builds the graph of the tasks matching keep. Prerequisites
// outside the subgroup become dangling and are ignored by the new graph.
func (g *Graph) Subgraph(keep func(model.Task) bool) *Graph {
	var tasks []model.Task
	for _, id := range g.order {
		if t := g.taskMap[id]; keep(t) {
			tasks = append(tasks, t)
		}
	}
	return NewGraph(tasks)
}

// TraderSubgraph is the subgroup of one trader's tasks.
func (g *Graph) TraderSubgraph(trader string) *Graph {
	return g.Subgraph(func(t model.Task) bool { return t.Trader.Name == trader })
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// EdgeCount returns the number of resolved prerequisite edges, self
// references included.
func (g *Graph) EdgeCount() int {
	return g.g.Edges().Len() + len(g.selfLoops)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.taskMap[id]
	return ok
}

// Task returns a single task by ID, or nil if not found.
func (g *Graph) Task(id string) *model.Task {
	if task, ok := g.taskMap[id]; ok {
		return &task
	}
	return nil
}

// Tasks returns all tasks in input order.
func (g *Graph) Tasks() []model.Task {
	out := make([]model.Task, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.taskMap[id])
	}
	return out
}

// IDs returns all ids in input order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Prerequisites returns the direct prerequisites of id that resolve inside
// the graph, in declaration order.
func (g *Graph) Prerequisites(id string) []string {
	return append([]string(nil), g.prereqs[id]...)
}

// Children returns the tasks that list id as a direct prerequisite, sorted.
func (g *Graph) Children(id string) []string {
	n, ok := g.idToNode[id]
	if !ok {
		return nil
	}
	var children []string
	to := g.g.To(n)
	for to.Next() {
		children = append(children, g.nodeToID[to.Node().ID()])
	}
	if g.selfLoops[id] {
		children = append(children, id)
	}
	sort.Strings(children)
	return children
}

// Roots returns the starting points of the graph in input order: tasks
// without prerequisites; failing that, tasks without a prerequisite inside
// the set; failing that, the tasks with the lowest level gate.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.taskMap[id].RequirementIDs()) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) > 0 {
		return roots
	}

	for _, id := range g.order {
		if len(g.prereqs[id]) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) > 0 {
		return roots
	}

	if len(g.order) == 0 {
		return nil
	}
	minLevel := g.taskMap[g.order[0]].MinPlayerLevel
	for _, id := range g.order[1:] {
		if lvl := g.taskMap[id].MinPlayerLevel; lvl < minLevel {
			minLevel = lvl
		}
	}
	for _, id := range g.order {
		if g.taskMap[id].MinPlayerLevel == minLevel {
			roots = append(roots, id)
		}
	}
	return roots
}

// sortTasks orders tasks by level gate, then name, then id.
func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.MinPlayerLevel != b.MinPlayerLevel {
			return a.MinPlayerLevel < b.MinPlayerLevel
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
