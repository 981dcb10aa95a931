package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// NoPendingLevel is the MinReqLevel of an item no open task still needs.
const NoPendingLevel = 99

// ItemMode restricts which requiring tasks count toward an item.
type ItemMode string

const (
	ItemModeAll              ItemMode = "all"
	ItemModeExcludeCollector ItemMode = "exclude-collector"
	ItemModeCollectorOnly    ItemMode = "collector-only"
)

// ParseItemMode parses a mode name; "" means all.
func ParseItemMode(s string) (ItemMode, error) {
	switch m := ItemMode(strings.ToLower(s)); m {
	case "", ItemModeAll:
		return ItemModeAll, nil
	case ItemModeExcludeCollector, ItemModeCollectorOnly:
		return m, nil
	}
	return "", fmt.Errorf("invalid item mode %q (want all, exclude-collector or collector-only)", s)
}

// ItemSort is the order of an item list.
type ItemSort string

const (
	ItemSortDefault       ItemSort = "default"    // level asc, remaining desc, total desc
	ItemSortRemainingDesc ItemSort = "count-desc" // remaining desc, total desc
	ItemSortRemainingAsc  ItemSort = "count-asc"  // remaining asc, total asc
	ItemSortLevel         ItemSort = "level-asc"  // level asc, remaining desc
	ItemSortName          ItemSort = "name"
	ItemSortPrice         ItemSort = "price" // flea price desc
)

// ParseItemSort parses a sort name; "" means default.
func ParseItemSort(s string) (ItemSort, error) {
	switch o := ItemSort(strings.ToLower(s)); o {
	case "":
		return ItemSortDefault, nil
	case ItemSortDefault, ItemSortRemainingDesc, ItemSortRemainingAsc, ItemSortLevel, ItemSortName, ItemSortPrice:
		return o, nil
	}
	return "", fmt.Errorf("invalid item sort %q", s)
}

// ItemFilter selects the requiring tasks and the items of an item list.
type ItemFilter struct {
	Mode ItemMode

	// Kappa and Lightkeeper keep only requiring tasks flagged for the
	// enabled capstones. With both off every task counts.
	Kappa       bool
	Lightkeeper bool

	// Collector is the kappa capstone name used by the collector modes.
	Collector string

	OnlyActive    bool   // only items with an open task the user can take
	HideCompleted bool   // drop items with nothing remaining
	Query         string // case-insensitive match on name or short name
	Sort          ItemSort
}

// RelatedTask is one requiring task of an item as seen by the filter.
type RelatedTask struct {
	model.ItemRequiredBy
	Completed bool `json:"completed"`
}

// ItemStatus is the progress of one found-in-raid item.
type ItemStatus struct {
	Item            model.ItemDetail `json:"item"`
	TotalNeeded     int              `json:"total_needed"`
	RemainingNeeded int              `json:"remaining_needed"`
	MinReqLevel     int              `json:"min_req_level"`
	HasActiveTask   bool             `json:"has_active_task"`
	RelatedTasks    []RelatedTask    `json:"related_tasks"`
	Owned           int              `json:"owned"` // filled by the caller from progress
}

// Shortfall is how many more the user has to find.
func (s ItemStatus) Shortfall() int {
	if d := s.RemainingNeeded - s.Owned; d > 0 {
		return d
	}
	return 0
}

// ItemStatuses computes the status of every indexed item needed by at least
// one task passing the filter, then applies the list filters and the sort.
func ItemStatuses(data model.ItemsData, completed model.CompletedSet, filter ItemFilter, userLevel int) []ItemStatus {
	collector := filter.Collector
	if collector == "" {
		collector = DefaultKappaCapstone
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	var out []ItemStatus
	for _, item := range data.ItemsIndex {
		st := ItemStatus{Item: item, MinReqLevel: NoPendingLevel}
		for _, req := range item.RequiredByTasks {
			if !keepRequirement(req, filter, collector) {
				continue
			}
			rt := RelatedTask{ItemRequiredBy: req, Completed: completed.Has(req.TaskID)}
			st.RelatedTasks = append(st.RelatedTasks, rt)
			st.TotalNeeded += req.Count
			if rt.Completed {
				continue
			}
			st.RemainingNeeded += req.Count
			if req.MinPlayerLevel < st.MinReqLevel {
				st.MinReqLevel = req.MinPlayerLevel
			}
			if req.MinPlayerLevel <= userLevel {
				st.HasActiveTask = true
			}
		}
		if st.TotalNeeded == 0 {
			continue
		}

		if filter.HideCompleted && st.RemainingNeeded == 0 {
			continue
		}
		if filter.OnlyActive && !st.HasActiveTask {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Name), query) &&
			!strings.Contains(strings.ToLower(item.ShortName), query) {
			continue
		}
		out = append(out, st)
	}

	SortItemStatuses(out, filter.Sort)
	return out
}

func keepRequirement(req model.ItemRequiredBy, f ItemFilter, collector string) bool {
	switch f.Mode {
	case ItemModeExcludeCollector:
		if req.TaskName == collector {
			return false
		}
	case ItemModeCollectorOnly:
		if req.TaskName != collector {
			return false
		}
	}
	if f.Kappa || f.Lightkeeper {
		return (f.Kappa && req.IsCollectorRequirement) || (f.Lightkeeper && req.IsLightkeeperRequirement)
	}
	return true
}

// SortItemStatuses orders statuses in place.
func SortItemStatuses(statuses []ItemStatus, order ItemSort) {
	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		switch order {
		case ItemSortRemainingDesc:
			if a.RemainingNeeded != b.RemainingNeeded {
				return a.RemainingNeeded > b.RemainingNeeded
			}
			return a.TotalNeeded > b.TotalNeeded
		case ItemSortRemainingAsc:
			if a.RemainingNeeded != b.RemainingNeeded {
				return a.RemainingNeeded < b.RemainingNeeded
			}
			return a.TotalNeeded < b.TotalNeeded
		case ItemSortLevel:
			if a.MinReqLevel != b.MinReqLevel {
				return a.MinReqLevel < b.MinReqLevel
			}
			return a.RemainingNeeded > b.RemainingNeeded
		case ItemSortName:
			return strings.ToLower(a.Item.Name) < strings.ToLower(b.Item.Name)
		case ItemSortPrice:
			return a.Item.Avg24hPrice > b.Item.Avg24hPrice
		default:
			if a.MinReqLevel != b.MinReqLevel {
				return a.MinReqLevel < b.MinReqLevel
			}
			if a.RemainingNeeded != b.RemainingNeeded {
				return a.RemainingNeeded > b.RemainingNeeded
			}
			return a.TotalNeeded > b.TotalNeeded
		}
	})
}
