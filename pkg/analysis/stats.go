package analysis

import (
	"math"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// Completion is a done/total count.
type Completion struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"` // rounded, 0 when Total is 0
}

// TraderCompletion is the completion of one trader's tasks.
type TraderCompletion struct {
	Trader string `json:"trader"`
	Completion
}

func newCompletion(done, total int) Completion {
	c := Completion{Completed: done, Total: total}
	if total > 0 {
		c.Percent = int(math.Round(float64(done) * 100 / float64(total)))
	}
	return c
}

// Stats counts how many of tasks are in completed.
func Stats(tasks []model.Task, completed model.CompletedSet) Completion {
	done := 0
	for _, t := range tasks {
		if completed.Has(t.ID) {
			done++
		}
	}
	return newCompletion(done, len(tasks))
}

// StatsByTrader returns per-trader completion in first-seen trader order.
func StatsByTrader(tasks []model.Task, completed model.CompletedSet) []TraderCompletion {
	var order []string
	done := make(map[string]int)
	total := make(map[string]int)
	for _, t := range tasks {
		name := t.Trader.Name
		if _, seen := total[name]; !seen {
			order = append(order, name)
		}
		total[name]++
		if completed.Has(t.ID) {
			done[name]++
		}
	}

	out := make([]TraderCompletion, 0, len(order))
	for _, name := range order {
		out = append(out, TraderCompletion{Trader: name, Completion: newCompletion(done[name], total[name])})
	}
	return out
}

// TotalExperience sums the experience reward of tasks.
func TotalExperience(tasks []model.Task) int {
	sum := 0
	for _, t := range tasks {
		sum += t.Experience
	}
	return sum
}

// EarnedExperience sums the experience of the completed tasks.
func EarnedExperience(tasks []model.Task, completed model.CompletedSet) int {
	sum := 0
	for _, t := range tasks {
		if completed.Has(t.ID) {
			sum += t.Experience
		}
	}
	return sum
}
