package loader

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// BuildItemIndex collects the found-in-raid hand-ins of quests and hideout
// levels. tasks should already carry their capstone flags.
func BuildItemIndex(tasks []model.Task, stations []model.HideoutStation) model.ItemsData {
	defer metrics.Timer(metrics.ItemIndex)()

	itemsMap := make(map[string]*model.ItemDetail)
	var byTask []model.TaskWithItems
	tasksRequiringFiR := 0

	for _, task := range tasks {
		if task.Type != "" && task.Type != model.TypeTask {
			continue
		}

		var taskItems []model.TaskItem
		for _, obj := range task.Objectives {
			if !obj.HandsOverFoundInRaid() {
				continue
			}
			count := obj.Count
			if count <= 0 {
				count = 1
			}
			for _, item := range obj.ReferencedItems() {
				entry := itemEntry(itemsMap, item)
				taskItems = append(taskItems, model.TaskItem{
					ItemID:               item.ID,
					ItemName:             item.Name,
					ItemShortName:        item.ShortName,
					Count:                count,
					Optional:             obj.Optional,
					ObjectiveDescription: obj.Description,
				})

				// Prestige copies of a quest share the name; list them once.
				if requiredByName(entry.RequiredByTasks, task.Name) {
					continue
				}
				entry.RequiredByTasks = append(entry.RequiredByTasks, model.ItemRequiredBy{
					TaskID:                   task.ID,
					TaskName:                 task.Name,
					Trader:                   task.Trader.Name,
					MinPlayerLevel:           task.MinPlayerLevel,
					Count:                    count,
					Optional:                 obj.Optional,
					IsCollectorRequirement:   task.IsCollectorRequirement,
					IsLightkeeperRequirement: task.IsLightkeeperRequirement,
				})
			}
		}

		if len(taskItems) == 0 {
			continue
		}
		tasksRequiringFiR++
		byTask = append(byTask, model.TaskWithItems{
			TaskID:           task.ID,
			TaskName:         task.Name,
			Trader:           task.Trader.Name,
			MinPlayerLevel:   task.MinPlayerLevel,
			Experience:       task.Experience,
			WikiLink:         task.WikiLink,
			Items:            taskItems,
			TaskRequirements: task.TaskRequirements,
		})
	}

	for _, st := range stations {
		for _, lvl := range st.Levels {
			if len(lvl.ItemRequirements) == 0 {
				continue
			}
			taskID := HideoutNodeID(st.NormalizedName, lvl.Level)
			taskName := st.Name + " Level " + strconv.Itoa(lvl.Level)

			var firItems []model.TaskItem
			for _, req := range lvl.ItemRequirements {
				entry := itemEntry(itemsMap, req.Item)
				if !req.FoundInRaid() {
					continue
				}
				firItems = append(firItems, model.TaskItem{
					ItemID:               req.Item.ID,
					ItemName:             req.Item.Name,
					ItemShortName:        req.Item.ShortName,
					Count:                req.Count,
					IsFirRequired:        true,
					ObjectiveDescription: "Hand over " + req.Item.Name,
				})
				if requiredByID(entry.RequiredByTasks, taskID) {
					continue
				}
				entry.RequiredByTasks = append(entry.RequiredByTasks, model.ItemRequiredBy{
					TaskID:   taskID,
					TaskName: taskName,
					Trader:   model.HideoutTraderName,
					Count:    req.Count,
				})
			}
			if len(firItems) == 0 {
				continue
			}

			reqs := make([]model.Requirement, 0, len(lvl.StationLevelRequirements))
			for _, r := range lvl.StationLevelRequirements {
				reqs = append(reqs, model.Requirement{Task: model.TaskRef{
					ID:   HideoutNodeID(r.Station.NormalizedName, r.Level),
					Name: r.Station.Name + " Level " + strconv.Itoa(r.Level),
				}})
			}
			byTask = append(byTask, model.TaskWithItems{
				TaskID:           taskID,
				TaskName:         taskName,
				Trader:           model.HideoutTraderName,
				Items:            firItems,
				TaskRequirements: reqs,
				DependencyCount:  len(lvl.StationLevelRequirements),
			})
		}
	}

	index := make([]model.ItemDetail, 0, len(itemsMap))
	for _, d := range itemsMap {
		index = append(index, *d)
	}
	sort.SliceStable(index, func(i, j int) bool {
		if li, lj := strings.ToLower(index[i].Name), strings.ToLower(index[j].Name); li != lj {
			return li < lj
		}
		return index[i].ID < index[j].ID
	})
	sort.SliceStable(byTask, func(i, j int) bool {
		return byTask[i].MinPlayerLevel < byTask[j].MinPlayerLevel
	})

	questCount := 0
	for _, t := range tasks {
		if t.Type == "" || t.Type == model.TypeTask {
			questCount++
		}
	}

	return model.ItemsData{
		Summary: model.ItemsSummary{
			TotalTasks:        questCount,
			TasksRequiringFiR: tasksRequiringFiR,
			UniqueFiRItems:    len(index),
			GeneratedAt:       time.Now().UTC(),
		},
		ItemsByTask: byTask,
		ItemsIndex:  index,
	}
}

func itemEntry(m map[string]*model.ItemDetail, item model.ItemRef) *model.ItemDetail {
	if d, ok := m[item.ID]; ok {
		return d
	}
	width, height := item.Width, item.Height
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	d := &model.ItemDetail{
		ID:              item.ID,
		Name:            item.Name,
		ShortName:       item.ShortName,
		IconLink:        item.IconLink,
		WikiLink:        item.WikiLink,
		Avg24hPrice:     item.Avg24hPrice,
		Weight:          item.Weight,
		Width:           width,
		Height:          height,
		RequiredByTasks: []model.ItemRequiredBy{},
	}
	m[item.ID] = d
	return d
}

func requiredByName(list []model.ItemRequiredBy, name string) bool {
	for _, r := range list {
		if r.TaskName == name {
			return true
		}
	}
	return false
}

func requiredByID(list []model.ItemRequiredBy, id string) bool {
	for _, r := range list {
		if r.TaskID == id {
			return true
		}
	}
	return false
}
