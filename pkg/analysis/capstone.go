package analysis

import (
	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// Default capstone task names.
const (
	DefaultKappaCapstone       = "Collector"
	DefaultLightkeeperCapstone = "Getting Acquainted"
)

// Capstones names the tasks whose prerequisite closures are flagged.
// An empty name disables that flag.
type Capstones struct {
	Kappa       string `yaml:"kappa" json:"kappa"`
	Lightkeeper string `yaml:"lightkeeper" json:"lightkeeper"`
}

// DefaultCapstones returns the stock capstone names.
func DefaultCapstones() Capstones {
	return Capstones{Kappa: DefaultKappaCapstone, Lightkeeper: DefaultLightkeeperCapstone}
}

// CapstoneMode selects one capstone-filtered view.
type CapstoneMode string

const (
	ModeKappa       CapstoneMode = "kappa"
	ModeLightkeeper CapstoneMode = "lightkeeper"
)

// IsValid reports whether m is a known mode.
func (m CapstoneMode) IsValid() bool {
	return m == ModeKappa || m == ModeLightkeeper
}

// MarkCapstoneRequirements returns a copy of tasks where every member of a
// capstone's prerequisite closure, and the capstone itself, carries the
// matching requirement flag. Flags already set in the input are kept.
// The result does not depend on any completion state.
func MarkCapstoneRequirements(tasks []model.Task, capstones Capstones) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	if len(out) == 0 {
		return out
	}

	g := NewGraph(out)
	index := make(map[string][]int, len(out))
	for i, t := range out {
		index[t.ID] = append(index[t.ID], i)
	}

	mark := func(name string, set func(*model.Task)) {
		if name == "" {
			return
		}
		found := false
		for _, capID := range capstoneIDs(out, name) {
			found = true
			for _, id := range append([]string{capID}, g.Ancestors(capID)...) {
				for _, i := range index[id] {
					set(&out[i])
				}
			}
		}
		if !found {
			debug.Log("capstone %q not found, no tasks flagged", name)
		}
	}

	mark(capstones.Kappa, func(t *model.Task) { t.IsCollectorRequirement = true })
	mark(capstones.Lightkeeper, func(t *model.Task) { t.IsLightkeeperRequirement = true })
	return out
}

// capstoneIDs returns the ids of the tasks named name, in input order.
func capstoneIDs(tasks []model.Task, name string) []string {
	var ids []string
	for _, t := range tasks {
		if t.Name == name {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// RequiredFor reports whether task is part of the given capstone mode.
func RequiredFor(task model.Task, mode CapstoneMode) bool {
	switch mode {
	case ModeKappa:
		return task.IsCollectorRequirement
	case ModeLightkeeper:
		return task.IsLightkeeperRequirement
	}
	return false
}

// FilterByModes keeps the tasks required by any enabled mode. With no mode
// enabled every task is kept.
func FilterByModes(tasks []model.Task, kappa, lightkeeper bool) []model.Task {
	if !kappa && !lightkeeper {
		return tasks
	}
	var out []model.Task
	for _, t := range tasks {
		if (kappa && t.IsCollectorRequirement) || (lightkeeper && t.IsLightkeeperRequirement) {
			out = append(out, t)
		}
	}
	return out
}
