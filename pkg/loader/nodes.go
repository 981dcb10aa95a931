package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// Status tag used for synthesized hideout prerequisites.
const statusComplete = "complete"

// TraderNodeID is the node id of a trader loyalty level.
func TraderNodeID(normalizedName string, level int) string {
	return fmt.Sprintf("trader-%s-%d", normalizedName, level)
}

// HideoutNodeID is the node id of a hideout station level.
func HideoutNodeID(normalizedName string, level int) string {
	return fmt.Sprintf("hideout-%s-%d", normalizedName, level)
}

// BuildNodes merges quests, trader loyalty levels and hideout station levels
// into one node list. Quests keep their order and come first.
func BuildNodes(ds *Dataset) []model.Task {
	defer metrics.Timer(metrics.NodeBuild)()

	if ds == nil {
		return nil
	}

	nodes := make([]model.Task, 0, len(ds.Tasks)+len(ds.Traders)*4+len(ds.Stations)*3)
	for _, t := range ds.Tasks {
		n := t.Clone()
		if n.Type == "" {
			n.Type = model.TypeTask
		}
		nodes = append(nodes, n)
	}

	for _, tr := range ds.Traders {
		nodes = append(nodes, traderNodes(tr)...)
	}
	for _, st := range ds.Stations {
		nodes = append(nodes, hideoutNodes(st)...)
	}
	return nodes
}

// traderNodes turns loyalty levels 2+ into nodes. Everybody starts at LL1, so
// level 1 is not a node, and levels are not chained to each other.
func traderNodes(tr model.TraderRecord) []model.Task {
	var out []model.Task
	for _, lvl := range tr.Levels {
		if lvl.Level <= 1 {
			continue
		}
		out = append(out, model.Task{
			ID:                 TraderNodeID(tr.NormalizedName, lvl.Level),
			Name:               fmt.Sprintf("%s LL%d", tr.Name, lvl.Level),
			Type:               model.TypeTrader,
			Trader:             model.Trader{Name: tr.Name},
			MinPlayerLevel:     lvl.RequiredPlayerLevel,
			Objectives:         []model.Objective{},
			TaskRequirements:   []model.Requirement{},
			TraderID:           tr.ID,
			TraderLevel:        lvl.Level,
			RequiredReputation: lvl.RequiredReputation,
			RequiredCommerce:   lvl.RequiredCommerce,
		})
	}
	return out
}

func hideoutNodes(st model.HideoutStation) []model.Task {
	var out []model.Task
	for _, lvl := range st.Levels {
		id := HideoutNodeID(st.NormalizedName, lvl.Level)

		reqs := make([]model.Requirement, 0, len(lvl.StationLevelRequirements)+len(lvl.TraderRequirements)+1)
		for _, r := range lvl.StationLevelRequirements {
			reqs = append(reqs, model.Requirement{
				Task: model.TaskRef{
					ID:   HideoutNodeID(r.Station.NormalizedName, r.Level),
					Name: fmt.Sprintf("%s Level %d", r.Station.Name, r.Level),
				},
				Status: model.StatusTags{statusComplete},
			})
		}
		for _, r := range lvl.TraderRequirements {
			reqs = append(reqs, model.Requirement{
				Task: model.TaskRef{
					ID:   TraderNodeID(r.Trader.NormalizedName, r.Level),
					Name: fmt.Sprintf("%s LL%d", r.Trader.Name, r.Level),
				},
				Status: model.StatusTags{statusComplete},
			})
		}

		// Level n implicitly requires level n-1 of the same station.
		if lvl.Level > 1 {
			prevID := HideoutNodeID(st.NormalizedName, lvl.Level-1)
			if !hasRequirement(reqs, prevID) {
				reqs = append(reqs, model.Requirement{
					Task: model.TaskRef{
						ID:   prevID,
						Name: fmt.Sprintf("%s Level %d", st.Name, lvl.Level-1),
					},
					Status: model.StatusTags{statusComplete},
				})
			}
		}

		node := model.Task{
			ID:               id,
			Name:             fmt.Sprintf("%s Level %d", st.Name, lvl.Level),
			Type:             model.TypeHideout,
			Trader:           model.Trader{Name: model.HideoutTraderName},
			Objectives:       []model.Objective{},
			TaskRequirements: reqs,
			HideoutStationID: st.ID,
			HideoutLevel:     lvl.Level,
			ConstructionTime: lvl.ConstructionTime,
		}

		for _, ir := range lvl.ItemRequirements {
			item := ir.Item
			node.Objectives = append(node.Objectives, model.Objective{
				ID:          fmt.Sprintf("%s-item-%s", id, ir.Item.ID),
				Type:        model.ObjectiveGiveItem,
				Description: fmt.Sprintf("Hand over %s", ir.Item.Name),
				Count:       ir.Count,
				FoundInRaid: ir.FoundInRaid(),
				Item:        &item,
			})
		}
		for _, sr := range lvl.SkillRequirements {
			node.Objectives = append(node.Objectives, model.Objective{
				ID:          fmt.Sprintf("%s-skill-%s", id, sr.Skill.Name),
				Type:        model.ObjectiveSkill,
				Description: fmt.Sprintf("Level %d %s", sr.Level, sr.Skill.Name),
			})
		}

		out = append(out, node)
	}
	return out
}

func hasRequirement(reqs []model.Requirement, id string) bool {
	for _, r := range reqs {
		if r.Task.ID == id {
			return true
		}
	}
	return false
}

// UniqueTasks drops tasks whose trader and name repeat an earlier task.
// Prestige re-releases of a quest share the name but not the id.
func UniqueTasks(tasks []model.Task) []model.Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		key := t.Trader.Name + "::" + t.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// TraderNames returns the distinct trader names in first-seen order.
func TraderNames(tasks []model.Task) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range tasks {
		if seen[t.Trader.Name] {
			continue
		}
		seen[t.Trader.Name] = true
		names = append(names, t.Trader.Name)
	}
	return names
}

// FilterByTrader returns the tasks owned by the named trader (case-insensitive).
func FilterByTrader(tasks []model.Task, trader string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if strings.EqualFold(t.Trader.Name, trader) {
			out = append(out, t)
		}
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// TraderSlug converts a trader name into a URL/CLI friendly slug.
func TraderSlug(name string) string {
	return whitespaceRun.ReplaceAllString(name, "-")
}

// SlugToTraderName reverses TraderSlug.
func SlugToTraderName(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}
