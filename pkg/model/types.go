package model

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Task is a single node of the progression graph. Quests, hideout station
// levels and trader loyalty levels are all represented as tasks.
type Task struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	Trader                   Trader        `json:"trader"`
	MinPlayerLevel           int           `json:"minPlayerLevel"`
	Experience               int           `json:"experience"`
	WikiLink                 string        `json:"wikiLink,omitempty"`
	Objectives               []Objective   `json:"objectives"`
	TaskRequirements         []Requirement `json:"taskRequirements"`
	IsCollectorRequirement   bool          `json:"isCollectorRequirement,omitempty"`
	IsLightkeeperRequirement bool          `json:"isLightkeeperRequirement,omitempty"`

	Type TaskType `json:"type,omitempty"`

	// Hideout specific
	HideoutStationID string `json:"hideoutStationId,omitempty"`
	HideoutLevel     int    `json:"hideoutLevel,omitempty"`
	ConstructionTime int    `json:"constructionTime,omitempty"`

	// Trader specific
	TraderID           string  `json:"traderId,omitempty"`
	TraderLevel        int     `json:"traderLevel,omitempty"`
	RequiredReputation float64 `json:"requiredReputation,omitempty"`
	RequiredCommerce   int     `json:"requiredCommerce,omitempty"`
}

// Trader is the owning group of a task.
type Trader struct {
	Name string `json:"name"`
}

// TaskRef points at another task by id.
type TaskRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Requirement is a prerequisite reference plus the completion-status tags the
// upstream data attaches to it.
type Requirement struct {
	Task   TaskRef    `json:"task"`
	Status StatusTags `json:"status"`
}

// HasStatus reports whether the requirement carries the given status tag.
func (r Requirement) HasStatus(status string) bool {
	for _, s := range r.Status {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// StatusTags decodes either a single string or a list of strings.
type StatusTags []string

// UnmarshalJSON accepts "complete" as well as ["complete","failed"].
func (s *StatusTags) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = StatusTags{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("status must be a string or list of strings: %w", err)
	}
	*s = list
	return nil
}

// Objective is one step of a task.
type Objective struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Optional    bool      `json:"optional,omitempty"`
	Count       int       `json:"count,omitempty"`
	FoundInRaid bool      `json:"foundInRaid,omitempty"`
	Item        *ItemRef  `json:"item,omitempty"`
	Items       []ItemRef `json:"items,omitempty"`
}

// HandsOverFoundInRaid is true for giveItem objectives that require
// found-in-raid items.
func (o Objective) HandsOverFoundInRaid() bool {
	return o.Type == ObjectiveGiveItem && o.FoundInRaid
}

// ReferencedItems returns the single item or the item list of the objective.
func (o Objective) ReferencedItems() []ItemRef {
	if o.Item != nil {
		return []ItemRef{*o.Item}
	}
	return o.Items
}

// Objective types the loader produces or inspects.
const (
	ObjectiveGiveItem = "giveItem"
	ObjectiveSkill    = "skill"
)

// TaskType categorizes the origin of a node.
type TaskType string

const (
	TypeTask    TaskType = "task"
	TypeHideout TaskType = "hideout"
	TypeTrader  TaskType = "trader"
)

// IsValid returns true if the type is a recognized value. The empty type is
// accepted and means TypeTask.
func (t TaskType) IsValid() bool {
	switch t {
	case "", TypeTask, TypeHideout, TypeTrader:
		return true
	}
	return false
}

// HideoutTraderName is the pseudo-trader hideout stations are grouped under.
const HideoutTraderName = "Hideout"

// Validate checks if the task data is logically valid
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid task type: %s", t.Type)
	}
	if t.MinPlayerLevel < 0 {
		return fmt.Errorf("min player level cannot be negative: %d", t.MinPlayerLevel)
	}
	return nil
}

// WikiBaseURL is the wiki the fallback task links point at.
const WikiBaseURL = "https://escapefromtarkov.fandom.com/wiki/"

var pvpZoneSuffix = regexp.MustCompile(`(?i)\s*\[PVP ZONE\]$`)

// Wiki returns the task's wiki link, or a link derived from its name when
// the data has none.
func (t Task) Wiki() string {
	if t.WikiLink != "" {
		return t.WikiLink
	}
	name := strings.TrimSpace(pvpZoneSuffix.ReplaceAllString(t.Name, ""))
	if name == "" {
		return ""
	}
	return WikiBaseURL + strings.ReplaceAll(name, " ", "_")
}

// RequirementIDs returns the ids of the prerequisite tasks in declaration order.
func (t Task) RequirementIDs() []string {
	if len(t.TaskRequirements) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.TaskRequirements))
	for _, req := range t.TaskRequirements {
		if req.Task.ID == "" {
			continue
		}
		ids = append(ids, req.Task.ID)
	}
	return ids
}

// Clone creates a deep copy of the task
func (t Task) Clone() Task {
	clone := t

	if t.Objectives != nil {
		clone.Objectives = make([]Objective, len(t.Objectives))
		for i, obj := range t.Objectives {
			c := obj
			if obj.Item != nil {
				v := *obj.Item
				c.Item = &v
			}
			if obj.Items != nil {
				c.Items = append([]ItemRef(nil), obj.Items...)
			}
			clone.Objectives[i] = c
		}
	}

	if t.TaskRequirements != nil {
		clone.TaskRequirements = make([]Requirement, len(t.TaskRequirements))
		for i, req := range t.TaskRequirements {
			c := req
			if req.Status != nil {
				c.Status = append(StatusTags(nil), req.Status...)
			}
			clone.TaskRequirements[i] = c
		}
	}

	return clone
}

// TaskFile is the shape of the static quest dataset.
type TaskFile struct {
	Tasks []Task `json:"tasks"`
}
