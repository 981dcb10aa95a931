package analysis_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/testutil"
)

// drawTasks draws an arbitrary node set: any node may require any id in
// 0..n+2, so cycles, self references and dangling ids all occur.
func drawTasks(t *rapid.T, acyclic bool) []model.Task {
	n := rapid.IntRange(1, 25).Draw(t, "n")
	tasks := make([]model.Task, n)
	for i := 0; i < n; i++ {
		maxRef := n + 2
		if acyclic {
			maxRef = i
		}
		var reqs []string
		if maxRef > 0 {
			refs := rapid.SliceOfN(rapid.IntRange(0, maxRef-1), 0, 4).Draw(t, fmt.Sprintf("reqs%d", i))
			for _, r := range refs {
				reqs = append(reqs, fmt.Sprintf("t%d", r))
			}
		}
		level := rapid.IntRange(1, 40).Draw(t, fmt.Sprintf("level%d", i))
		tasks[i] = testutil.Task(fmt.Sprintf("t%d", i), "Prapor", level, reqs...)
	}
	return tasks
}

func TestPropertyDepthRecurrenceOnDAG(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := analysis.NewGraph(drawTasks(t, true))
		depths := g.Depths()
		for _, id := range g.IDs() {
			pres := g.Prerequisites(id)
			want := 0
			for _, p := range pres {
				if d := depths[p] + 1; d > want {
					want = d
				}
			}
			if depths[id] != want {
				t.Fatalf("depth(%s) = %d, want %d (prerequisites %v)", id, depths[id], want, pres)
			}
		}
	})
}

func TestPropertyDepthTerminatesOnAnyInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := drawTasks(t, false)
		g := analysis.NewGraph(tasks)
		for id, d := range g.Depths() {
			if d < 0 || d > len(tasks) {
				t.Fatalf("depth(%s) = %d outside [0, %d]", id, d, len(tasks))
			}
			if len(g.Prerequisites(id)) == 0 && d != 0 {
				t.Fatalf("depth(%s) = %d without prerequisites", id, d)
			}
		}
	})
}

func TestPropertyForceCompleteClosure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := drawTasks(t, false)
		g := analysis.NewGraph(tasks)
		target := rapid.SampledFrom(g.IDs()).Draw(t, "target")

		exp, err := g.ForceCompletion(target)
		if err != nil {
			t.Fatalf("ForceCompletion(%s): %v", target, err)
		}
		completed := model.NewCompletedSet()
		level := exp.Apply(completed, 1)

		// exactly the target plus its transitive prerequisites
		want := map[string]bool{target: true}
		for _, a := range g.Ancestors(target) {
			want[a] = true
		}
		if completed.Len() != len(want) {
			t.Fatalf("completed %v, want %v", completed.IDs(), want)
		}
		for id := range want {
			if !completed.Has(id) {
				t.Fatalf("%s missing after force-complete", id)
			}
		}
		// closed under prerequisites
		for _, id := range completed.IDs() {
			if g.IsLocked(id, completed) {
				t.Fatalf("%s still locked after force-complete", id)
			}
		}
		if gate := g.Task(target).MinPlayerLevel; level < gate {
			t.Fatalf("level %d below target gate %d", level, gate)
		}

		// idempotent
		before := completed.IDs()
		if again := exp.Apply(completed, level); again != level {
			t.Fatalf("level changed on re-apply: %d -> %d", level, again)
		}
		if fmt.Sprint(before) != fmt.Sprint(completed.IDs()) {
			t.Fatalf("re-apply changed the set: %v -> %v", before, completed.IDs())
		}
	})
}

func TestPropertyToggleTwiceRestores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,4}`), 0, 10).Draw(t, "ids")
		target := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "target")
		completed := model.NewCompletedSet(ids...)
		had := completed.Has(target)
		size := completed.Len()

		completed.Toggle(target)
		completed.Toggle(target)

		if completed.Has(target) != had || completed.Len() != size {
			t.Fatalf("toggle twice changed membership of %q", target)
		}
	})
}

func TestPropertyAvailableIsUnlocked(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := analysis.NewGraph(drawTasks(t, false))
		completed := model.NewCompletedSet()
		for _, id := range g.IDs() {
			if rapid.Bool().Draw(t, "done-"+id) {
				completed.Add(id)
			}
		}
		level := rapid.IntRange(1, 40).Draw(t, "level")
		for _, task := range g.Available(completed, level) {
			if completed.Has(task.ID) || g.IsLocked(task.ID, completed) || analysis.IsLevelLocked(task, level) {
				t.Fatalf("%s listed as available but is not", task.ID)
			}
		}
	})
}
