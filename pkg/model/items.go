package model

import "time"

// ItemRequiredBy links an item to one task that consumes it.
type ItemRequiredBy struct {
	TaskID                   string `json:"taskId"`
	TaskName                 string `json:"taskName"`
	Trader                   string `json:"trader"`
	MinPlayerLevel           int    `json:"minPlayerLevel"`
	Count                    int    `json:"count"`
	Optional                 bool   `json:"optional"`
	IsCollectorRequirement   bool   `json:"isCollectorRequirement,omitempty"`
	IsLightkeeperRequirement bool   `json:"isLightkeeperRequirement,omitempty"`
}

// ItemDetail is an entry of the found-in-raid item index.
type ItemDetail struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	ShortName       string           `json:"shortName"`
	IconLink        string           `json:"iconLink,omitempty"`
	WikiLink        string           `json:"wikiLink,omitempty"`
	Avg24hPrice     int              `json:"avg24hPrice"`
	Weight          float64          `json:"weight"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	RequiredByTasks []ItemRequiredBy `json:"requiredByTasks"`
}

// TotalCount sums the counts over every task requiring the item.
func (d ItemDetail) TotalCount() int {
	total := 0
	for _, r := range d.RequiredByTasks {
		total += r.Count
	}
	return total
}

// TaskItem is one item hand-in of a task.
type TaskItem struct {
	ItemID               string `json:"itemId"`
	ItemName             string `json:"itemName"`
	ItemShortName        string `json:"itemShortName"`
	Count                int    `json:"count"`
	Optional             bool   `json:"optional"`
	IsFirRequired        bool   `json:"isFirRequired,omitempty"`
	ObjectiveDescription string `json:"objectiveDescription"`
}

// TaskWithItems groups the found-in-raid hand-ins of a task.
type TaskWithItems struct {
	TaskID           string        `json:"taskId"`
	TaskName         string        `json:"taskName"`
	Trader           string        `json:"trader"`
	MinPlayerLevel   int           `json:"minPlayerLevel"`
	Experience       int           `json:"experience"`
	WikiLink         string        `json:"wikiLink,omitempty"`
	Items            []TaskItem    `json:"firItems"`
	TaskRequirements []Requirement `json:"taskRequirements"`
	DependencyCount  int           `json:"dependencyCount,omitempty"`
}

// ItemsSummary describes the item index as a whole.
type ItemsSummary struct {
	TotalTasks        int       `json:"totalTasks"`
	TasksRequiringFiR int       `json:"tasksRequiringFiR"`
	UniqueFiRItems    int       `json:"uniqueFiRItems"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// ItemsData is the found-in-raid item index.
type ItemsData struct {
	Summary     ItemsSummary    `json:"summary"`
	ItemsByTask []TaskWithItems `json:"itemsByTask"`
	ItemsIndex  []ItemDetail    `json:"itemsIndex"`
}

// FindItem returns the item with the given id, or nil.
func (d ItemsData) FindItem(id string) *ItemDetail {
	for i := range d.ItemsIndex {
		if d.ItemsIndex[i].ID == id {
			return &d.ItemsIndex[i]
		}
	}
	return nil
}

// ItemsForTask returns the hand-ins of a task, or nil.
func (d ItemsData) ItemsForTask(taskID string) []TaskItem {
	for _, t := range d.ItemsByTask {
		if t.TaskID == taskID {
			return t.Items
		}
	}
	return nil
}
