package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// TaskNode is one line of the quest tree. Children are the tasks that
// depend on the node.
type TaskNode struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Level    int                `json:"min_level"`
	Depth    int                `json:"depth"`
	State    analysis.LockState `json:"state"`
	Repeat   bool               `json:"repeat,omitempty"` // expanded earlier in the tree
	Cycle    bool               `json:"cycle,omitempty"`  // leads back onto its own path
	Children []*TaskNode        `json:"children,omitempty"`
}

// Evaluator returns the lock state lookup of g for one progress snapshot.
func Evaluator(g *analysis.Graph, completed model.CompletedSet, userLevel int) func(string) analysis.LockState {
	return func(id string) analysis.LockState {
		return g.Evaluate(id, completed, userLevel)
	}
}

// BuildTaskTree lays g out as a forest starting at g.Roots(). A task
// reachable along several paths is expanded once; later occurrences are
// marked Repeat. Tasks no root reaches are appended as extra roots. state
// is usually an Evaluator over the full graph, so prerequisites outside a
// filtered view still lock.
func BuildTaskTree(g *analysis.Graph, state func(string) analysis.LockState) []*TaskNode {
	depths := g.Depths()
	expanded := make(map[string]bool, g.Len())
	onPath := make(map[string]bool)

	var build func(id string) *TaskNode
	build = func(id string) *TaskNode {
		task := g.Task(id)
		node := &TaskNode{
			ID:    id,
			Name:  task.Name,
			Level: task.MinPlayerLevel,
			Depth: depths[id],
			State: state(id),
		}
		switch {
		case onPath[id]:
			node.Cycle = true
			return node
		case expanded[id]:
			node.Repeat = true
			return node
		}

		expanded[id] = true
		onPath[id] = true
		defer delete(onPath, id)
		for _, child := range g.Children(id) {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	var forest []*TaskNode
	for _, id := range g.Roots() {
		if !expanded[id] {
			forest = append(forest, build(id))
		}
	}
	for _, id := range g.IDs() {
		if !expanded[id] {
			forest = append(forest, build(id))
		}
	}
	return forest
}

// Marker returns the bracketed status of a node.
func Marker(st analysis.LockState, level int) string {
	switch {
	case st.Completed:
		return "[x]"
	case st.Locked:
		return "[L]"
	case st.LevelLocked:
		return fmt.Sprintf("[lvl %d]", level)
	default:
		return "[ ]"
	}
}

// MarkerStyle colors a marker and its label by state.
func (th *Theme) MarkerStyle(st analysis.LockState) func(...string) string {
	switch {
	case st.Completed:
		return th.Done.Render
	case st.Locked:
		return th.Locked.Render
	case st.LevelLocked:
		return th.Gated.Render
	default:
		return th.Available.Render
	}
}

// RenderTree renders the forest with box-drawing connectors, names cut to
// fit width.
func RenderTree(th *Theme, forest []*TaskNode, width int) string {
	if len(forest) == 0 {
		return th.Muted.Render("No tasks.") + "\n"
	}
	var sb strings.Builder
	for _, node := range forest {
		renderTreeNode(&sb, th, node, "", true, true, width)
	}
	return sb.String()
}

func renderTreeNode(sb *strings.Builder, th *Theme, node *TaskNode, prefix string, isLast, isRoot bool, width int) {
	var connector string
	switch {
	case isRoot:
		connector = ""
	case isLast:
		connector = "└── "
	default:
		connector = "├── "
	}

	marker := Marker(node.State, node.Level)
	var suffix string
	switch {
	case node.Cycle:
		suffix = " (cycle)"
	case node.Repeat:
		suffix = " (see above)"
	}

	lead := prefix + connector
	room := width - runewidth.StringWidth(lead) - runewidth.StringWidth(marker) - 1 - runewidth.StringWidth(suffix)
	name := Truncate(node.Name, max(room, 8))

	paint := th.MarkerStyle(node.State)
	sb.WriteString(th.Muted.Render(lead))
	sb.WriteString(paint(marker))
	sb.WriteString(" ")
	sb.WriteString(paint(name))
	if suffix != "" {
		sb.WriteString(th.Muted.Render(suffix))
	}
	sb.WriteString("\n")

	var childPrefix string
	switch {
	case isRoot:
		childPrefix = ""
	case isLast:
		childPrefix = prefix + "    "
	default:
		childPrefix = prefix + "│   "
	}
	for i, child := range node.Children {
		renderTreeNode(sb, th, child, childPrefix, i == len(node.Children)-1, false, width)
	}
}
