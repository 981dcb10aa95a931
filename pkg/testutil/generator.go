// Package testutil provides test fixture generators for prerequisite graph
// topologies. All generators produce deterministic output for reproducible
// tests.
package testutil

import (
	"fmt"
	"math/rand"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// GraphFixture is an abstract graph for testing graph algorithms.
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"` // [from_idx, to_idx]: from requires to
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	HasCycles   bool `json:"has_cycles,omitempty"`
	IsConnected bool `json:"is_connected,omitempty"`
	MaxDepth    int  `json:"max_depth,omitempty"`
}

// GeneratorConfig controls task generation.
type GeneratorConfig struct {
	Seed      int64    // Random seed for determinism
	IDPrefix  string   // Prefix for task IDs (default: "Q")
	Traders   []string // Trader distribution (default: Prapor only)
	MaxLevel  int      // Level gates are drawn from 1..MaxLevel (default: 1)
	MaxReward int      // Experience rewards are drawn from 0..MaxReward
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "Q",
		Traders:  []string{"Prapor"},
		MaxLevel: 1,
	}
}

// Generator creates test fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "Q"
	}
	if len(cfg.Traders) == 0 {
		cfg.Traders = []string{"Prapor"}
	}
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = 1
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Graph Topology Generators
// ============================================================================

// Chain creates a linear chain where n{i} requires n{i-1}.
// Properties: DAG, max depth = size-1, single root n0.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i, i - 1})
		}
	}
	depth := size - 1
	if depth < 0 {
		depth = 0
	}
	return GraphFixture{
		Description: fmt.Sprintf("Chain of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{IsConnected: true, MaxDepth: depth},
	}
}

// Diamond creates top -> mid1..midN -> bottom, where top requires every mid
// and every mid requires bottom.
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}
	size := width + 2
	nodes := make([]string, size)
	edges := make([][2]int, 0, width*2)

	nodes[0] = "top"
	nodes[size-1] = "bottom"
	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, [2]int{0, i})        // top requires mid
		edges = append(edges, [2]int{i, size - 1}) // mid requires bottom
	}

	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes", width),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{IsConnected: true, MaxDepth: 2},
	}
}

// Cycle creates n0 -> n1 -> ... -> n{size-1} -> n0.
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Cycle of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{HasCycles: true, IsConnected: true},
	}
}

// SelfLoop creates a single node that requires itself.
func (g *Generator) SelfLoop() GraphFixture {
	return GraphFixture{
		Description: "Single node with self-loop",
		Nodes:       []string{"n0"},
		Edges:       [][2]int{{0, 0}},
		Properties:  Properties{HasCycles: true, IsConnected: true},
	}
}

// Tree creates a tree of the given depth where each parent requires its
// `breadth` children, so the root is the deepest node.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	nodes := []string{"n0"}
	var edges [][2]int
	current := []int{0}
	for d := 0; d < depth; d++ {
		var next []int
		for _, parent := range current {
			for b := 0; b < breadth; b++ {
				child := len(nodes)
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{parent, child})
				next = append(next, child)
			}
		}
		current = next
	}

	return GraphFixture{
		Description: fmt.Sprintf("Tree with depth=%d, breadth=%d (%d nodes)", depth, breadth, len(nodes)),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{IsConnected: true, MaxDepth: depth},
	}
}

// Disconnected creates `components` separate chains of `componentSize`.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	var nodes []string
	var edges [][2]int
	for c := 0; c < components; c++ {
		for i := 0; i < componentSize; i++ {
			if i > 0 {
				edges = append(edges, [2]int{len(nodes), len(nodes) - 1})
			}
			nodes = append(nodes, fmt.Sprintf("c%d_n%d", c, i))
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("%d disconnected chains of %d nodes", components, componentSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{MaxDepth: componentSize - 1},
	}
}

// RandomDAG creates a random DAG; density is the probability that a node
// requires any given earlier node.
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}

	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		// Only later nodes require earlier ones, so no cycles.
		for j := 0; j < i; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Random DAG with %d nodes, density=%.2f (%d edges)", size, density, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
	}
}

// ============================================================================
// Task Generators (convert graph fixtures to model.Task slices)
// ============================================================================

// TaskID returns the task id the generator assigns to a fixture node.
func (g *Generator) TaskID(node string) string {
	return fmt.Sprintf("%s-%s", g.cfg.IDPrefix, node)
}

// ToTasks converts a GraphFixture to quest tasks.
func (g *Generator) ToTasks(gf GraphFixture) []model.Task {
	reqs := make(map[int][]int)
	for _, e := range gf.Edges {
		reqs[e[0]] = append(reqs[e[0]], e[1])
	}

	tasks := make([]model.Task, len(gf.Nodes))
	for i, node := range gf.Nodes {
		task := model.Task{
			ID:               g.TaskID(node),
			Name:             fmt.Sprintf("Task %s", node),
			Type:             model.TypeTask,
			Trader:           model.Trader{Name: g.cfg.Traders[g.rng.Intn(len(g.cfg.Traders))]},
			MinPlayerLevel:   1 + g.rng.Intn(g.cfg.MaxLevel),
			Objectives:       []model.Objective{},
			TaskRequirements: []model.Requirement{},
		}
		if g.cfg.MaxReward > 0 {
			task.Experience = g.rng.Intn(g.cfg.MaxReward + 1)
		}
		for _, r := range reqs[i] {
			task.TaskRequirements = append(task.TaskRequirements, model.Requirement{
				Task:   model.TaskRef{ID: g.TaskID(gf.Nodes[r]), Name: fmt.Sprintf("Task %s", gf.Nodes[r])},
				Status: model.StatusTags{"complete"},
			})
		}
		tasks[i] = task
	}
	return tasks
}

// ToJSON renders tasks as a task file ({"tasks": [...]}).
func ToJSON(tasks []model.Task) string {
	data, err := json.Marshal(model.TaskFile{Tasks: tasks})
	if err != nil {
		return ""
	}
	return string(data)
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickChain creates a chain fixture with default settings.
func QuickChain(size int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Chain(size))
}

// QuickDiamond creates a diamond fixture with default settings.
func QuickDiamond(width int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Diamond(width))
}

// QuickCycle creates a cycle fixture with default settings.
func QuickCycle(size int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Cycle(size))
}

// QuickTree creates a tree fixture with default settings.
func QuickTree(depth, breadth int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Tree(depth, breadth))
}

// QuickRandom creates a random DAG with default settings.
func QuickRandom(size int, density float64) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.RandomDAG(size, density))
}

// Task builds a quest task by hand: id, trader, level gate and the ids it
// requires.
func Task(id, trader string, minLevel int, requires ...string) model.Task {
	t := model.Task{
		ID:               id,
		Name:             id,
		Type:             model.TypeTask,
		Trader:           model.Trader{Name: trader},
		MinPlayerLevel:   minLevel,
		Objectives:       []model.Objective{},
		TaskRequirements: []model.Requirement{},
	}
	for _, r := range requires {
		t.TaskRequirements = append(t.TaskRequirements, model.Requirement{
			Task:   model.TaskRef{ID: r, Name: r},
			Status: model.StatusTags{"complete"},
		})
	}
	return t
}
