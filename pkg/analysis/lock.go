package analysis

import (
	"github.com/vanderheijden86/questwork/pkg/model"
)

// LockState is the derived status of one task against a CompletedSet and a
// user level. It is computed on every query and never cached.
type LockState struct {
	Completed   bool `json:"completed"`
	Locked      bool `json:"locked"`       // a prerequisite is not complete
	LevelLocked bool `json:"level_locked"` // level gate above the user level
	Available   bool `json:"available"`    // not complete, not locked, not level-locked
}

// IsLocked reports whether at least one prerequisite of id that resolves
// inside the graph is missing from completed. Missing prerequisites don't
// lock (graceful degradation).
func (g *Graph) IsLocked(id string, completed model.CompletedSet) bool {
	for _, pre := range g.prereqs[id] {
		if !completed.Has(pre) {
			return true
		}
	}
	return false
}

// IsLevelLocked reports whether the task's level gate exceeds userLevel.
func IsLevelLocked(task model.Task, userLevel int) bool {
	return task.MinPlayerLevel > userLevel
}

// Evaluate returns the lock state of id. Unknown ids evaluate to the zero
// state with Completed reflecting the set.
func (g *Graph) Evaluate(id string, completed model.CompletedSet, userLevel int) LockState {
	st := LockState{Completed: completed.Has(id)}
	task, ok := g.taskMap[id]
	if !ok {
		return st
	}
	st.Locked = g.IsLocked(id, completed)
	st.LevelLocked = IsLevelLocked(task, userLevel)
	st.Available = !st.Completed && !st.Locked && !st.LevelLocked
	return st
}

// Available returns the tasks that can be done right now, sorted by level
// gate and name.
func (g *Graph) Available(completed model.CompletedSet, userLevel int) []model.Task {
	var out []model.Task
	for _, id := range g.order {
		if g.Evaluate(id, completed, userLevel).Available {
			out = append(out, g.taskMap[id])
		}
	}
	sortTasks(out)
	return out
}

// OpenPrerequisites returns the prerequisites of id that are not complete.
func (g *Graph) OpenPrerequisites(id string, completed model.CompletedSet) []string {
	var open []string
	for _, pre := range g.prereqs[id] {
		if !completed.Has(pre) {
			open = append(open, pre)
		}
	}
	return open
}

// Unlocks returns the children of id that would become dependency-unlocked
// if id were completed now.
func (g *Graph) Unlocks(id string, completed model.CompletedSet) []string {
	next := completed.Clone()
	next.Add(id)

	var out []string
	for _, child := range g.Children(id) {
		if child == id || completed.Has(child) {
			continue
		}
		if g.IsLocked(child, completed) && !g.IsLocked(child, next) {
			out = append(out, child)
		}
	}
	return out
}
