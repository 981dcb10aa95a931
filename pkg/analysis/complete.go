package analysis

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// Expansion is the set of ids a force-complete of Target marks done, plus
// the level the user has to be at least at afterwards.
type Expansion struct {
	Target        string   `json:"target"`
	IDs           []string `json:"ids"` // target first, then prerequisites in discovery order
	RequiredLevel int      `json:"required_level"`
}

// Ancestors returns every transitive prerequisite of id inside the graph,
// in depth-first discovery order. id itself is not included even when a
// cycle leads back to it.
func (g *Graph) Ancestors(id string) []string {
	if !g.Has(id) {
		return nil
	}
	visited := map[string]bool{id: true}
	var out []string

	var walk func(string)
	walk = func(cur string) {
		for _, pre := range g.prereqs[cur] {
			if visited[pre] {
				continue
			}
			visited[pre] = true
			out = append(out, pre)
			walk(pre)
		}
	}
	walk(id)
	return out
}

// Descendants returns every task that transitively depends on id, sorted.
func (g *Graph) Descendants(id string) []string {
	if !g.Has(id) {
		return nil
	}
	visited := map[string]bool{id: true}
	queue := []string{id}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range g.Children(cur) {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	sort.Strings(out)
	return out
}

// ForceCompletion expands id into itself plus all transitive prerequisites.
// It does not touch any state; progress.Tracker applies the expansion.
func (g *Graph) ForceCompletion(id string) (Expansion, error) {
	task, ok := g.taskMap[id]
	if !ok {
		return Expansion{}, fmt.Errorf("force complete %q: %w", id, ErrUnknownTask)
	}
	return Expansion{
		Target:        id,
		IDs:           append([]string{id}, g.Ancestors(id)...),
		RequiredLevel: task.MinPlayerLevel,
	}, nil
}

// Missing returns the ids of the expansion not yet in completed.
func (e Expansion) Missing(completed model.CompletedSet) []string {
	var out []string
	for _, id := range e.IDs {
		if !completed.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Apply adds the expansion to completed and returns the new user level.
// Applying the same expansion twice changes nothing.
func (e Expansion) Apply(completed model.CompletedSet, userLevel int) int {
	completed.Add(e.IDs...)
	if e.RequiredLevel > userLevel {
		return e.RequiredLevel
	}
	return userLevel
}
