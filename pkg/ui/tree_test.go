package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/testutil"
)

// A <- B, A <- C, {B, C} <- D, plus the cycle X <-> Y nothing reaches.
func treeGraph() *analysis.Graph {
	return analysis.NewGraph([]model.Task{
		testutil.Task("A", "Prapor", 1),
		testutil.Task("B", "Prapor", 1, "A"),
		testutil.Task("C", "Prapor", 5, "A"),
		testutil.Task("D", "Prapor", 1, "B", "C"),
		testutil.Task("X", "Prapor", 1, "Y"),
		testutil.Task("Y", "Prapor", 1, "X"),
	})
}

func TestBuildTaskTree(t *testing.T) {
	forest := BuildTaskTree(treeGraph(), Evaluator(treeGraph(), model.NewCompletedSet(), 1))
	if len(forest) != 2 {
		t.Fatalf("expected roots A and X, got %d trees", len(forest))
	}

	a := forest[0]
	if a.ID != "A" || len(a.Children) != 2 {
		t.Fatalf("unexpected root %+v", a)
	}
	b, c := a.Children[0], a.Children[1]
	if b.ID != "B" || c.ID != "C" {
		t.Fatalf("children = %s, %s", b.ID, c.ID)
	}
	if len(b.Children) != 1 || b.Children[0].Repeat {
		t.Errorf("D should be expanded under B: %+v", b.Children)
	}
	if len(c.Children) != 1 || !c.Children[0].Repeat {
		t.Errorf("D under C should be marked as a repeat: %+v", c.Children)
	}
	if b.Children[0].Depth != 2 {
		t.Errorf("D depth = %d, want 2", b.Children[0].Depth)
	}

	x := forest[1]
	if x.ID != "X" || len(x.Children) != 1 || x.Children[0].ID != "Y" {
		t.Fatalf("unexpected cycle tree %+v", x)
	}
	back := x.Children[0].Children
	if len(back) != 1 || !back[0].Cycle || back[0].ID != "X" {
		t.Errorf("Y should lead back to X marked as a cycle: %+v", back)
	}
}

func TestBuildTaskTreeSelfLoop(t *testing.T) {
	g := analysis.NewGraph([]model.Task{testutil.Task("S", "Jaeger", 1, "S")})
	forest := BuildTaskTree(g, Evaluator(g, model.NewCompletedSet(), 1))
	if len(forest) != 1 {
		t.Fatalf("expected one tree, got %d", len(forest))
	}
	if kids := forest[0].Children; len(kids) != 1 || !kids[0].Cycle {
		t.Errorf("self reference should render as a cycle: %+v", kids)
	}
}

func TestRenderTree(t *testing.T) {
	th := NewTheme(&bytes.Buffer{}, config.ColorNever)
	g := treeGraph()
	forest := BuildTaskTree(g, Evaluator(g, model.NewCompletedSet("A"), 1))
	out := RenderTree(th, forest, 80)

	for _, want := range []string{
		"[x] A\n",
		"├── [ ] B\n",
		"│   └── [L] D\n",
		"└── [lvl 5] C\n",
		"    └── [L] D (see above)\n",
		"[L] X\n",
		"    └── [L] X (cycle)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderTreeTruncatesToWidth(t *testing.T) {
	th := NewTheme(&bytes.Buffer{}, config.ColorNever)
	long := testutil.Task("L", "Skier", 1)
	long.Name = strings.Repeat("very long quest name ", 5)
	g := analysis.NewGraph([]model.Task{long})
	forest := BuildTaskTree(g, Evaluator(g, model.NewCompletedSet(), 1))

	out := strings.TrimRight(RenderTree(th, forest, 30), "\n")
	if !strings.HasSuffix(out, "…") {
		t.Errorf("expected truncated name, got %q", out)
	}
}

func TestRenderTreeEmpty(t *testing.T) {
	th := NewTheme(&bytes.Buffer{}, config.ColorNever)
	if got := RenderTree(th, nil, 80); !strings.Contains(got, "No tasks") {
		t.Errorf("got %q", got)
	}
}

func TestBuildTaskTreeUsesFullGraphState(t *testing.T) {
	full := analysis.NewGraph([]model.Task{
		testutil.Task("P1", "Prapor", 1),
		testutil.Task("T1", "Therapist", 1, "P1"),
	})
	view := full.TraderSubgraph("Therapist")

	forest := BuildTaskTree(view, Evaluator(full, model.NewCompletedSet(), 1))
	if len(forest) != 1 || !forest[0].State.Locked {
		t.Errorf("cross-trader prerequisite should still lock T1: %+v", forest)
	}
}
