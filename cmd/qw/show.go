package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

type objectiveOutput struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Optional    bool     `json:"optional,omitempty"`
	Count       int      `json:"count,omitempty"`
	FoundInRaid bool     `json:"found_in_raid,omitempty"`
	Items       []string `json:"items,omitempty"`
}

type taskRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Trader    string `json:"trader"`
	Completed bool   `json:"completed"`
}

type showOutput struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Trader            string             `json:"trader"`
	Type              model.TaskType     `json:"type"`
	MinLevel          int                `json:"min_level"`
	Experience        int                `json:"experience"`
	Kappa             bool               `json:"kappa"`
	Lightkeeper       bool               `json:"lightkeeper"`
	Wiki              string             `json:"wiki,omitempty"`
	State             analysis.LockState `json:"state"`
	Objectives        []objectiveOutput  `json:"objectives"`
	Prerequisites     []taskRef          `json:"prerequisites"`
	OpenPrerequisites []string           `json:"open_prerequisites"`
	OtherTraders      []taskRef          `json:"other_trader_prerequisites"`
	Unlocks           []string           `json:"unlocks"`
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show one task with its objectives, prerequisites and lock state",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}
			out := a.describe(task)
			if a.jsonOut {
				return a.printJSON(out)
			}
			a.renderShow(out)
			return nil
		}),
	}
}

func (a *app) describe(task model.Task) showOutput {
	g := a.snap.Graph
	st := a.tracker.State()

	out := showOutput{
		ID:                task.ID,
		Name:              task.Name,
		Trader:            task.Trader.Name,
		Type:              task.Type,
		MinLevel:          task.MinPlayerLevel,
		Experience:        task.Experience,
		Kappa:             analysis.RequiredFor(task, analysis.ModeKappa),
		Lightkeeper:       analysis.RequiredFor(task, analysis.ModeLightkeeper),
		State:             g.Evaluate(task.ID, st.Completed, st.Level),
		Objectives:        []objectiveOutput{},
		Prerequisites:     []taskRef{},
		OpenPrerequisites: g.OpenPrerequisites(task.ID, st.Completed),
		OtherTraders:      []taskRef{},
		Unlocks:           []string{},
	}
	if task.Type != model.TypeHideout && task.Type != model.TypeTrader {
		out.Wiki = task.Wiki()
	}
	if out.OpenPrerequisites == nil {
		out.OpenPrerequisites = []string{}
	}

	for _, o := range task.Objectives {
		obj := objectiveOutput{
			Type:        o.Type,
			Description: o.Description,
			Optional:    o.Optional,
			Count:       o.Count,
			FoundInRaid: o.FoundInRaid,
		}
		for _, it := range o.ReferencedItems() {
			name := it.ShortName
			if name == "" {
				name = it.Name
			}
			obj.Items = append(obj.Items, name)
		}
		out.Objectives = append(out.Objectives, obj)
	}

	for _, id := range g.Prerequisites(task.ID) {
		pre := g.Task(id)
		ref := taskRef{ID: id, Name: pre.Name, Trader: pre.Trader.Name, Completed: st.Completed.Has(id)}
		out.Prerequisites = append(out.Prerequisites, ref)
		if pre.Trader.Name != task.Trader.Name {
			out.OtherTraders = append(out.OtherTraders, ref)
		}
	}
	for _, id := range g.Children(task.ID) {
		if id != task.ID {
			out.Unlocks = append(out.Unlocks, id)
		}
	}
	return out
}

func (a *app) renderShow(out showOutput) {
	th := a.theme

	a.printf("%s\n", th.Title.Render(out.Name))
	meta := []string{th.Info.Render(out.Trader), fmt.Sprintf("lvl %d", out.MinLevel)}
	if out.Experience > 0 {
		meta = append(meta, fmt.Sprintf("%d XP", out.Experience))
	}
	if out.Kappa {
		meta = append(meta, th.Warning.Render("κ kappa"))
	}
	if out.Lightkeeper {
		meta = append(meta, th.Warning.Render("lightkeeper"))
	}
	a.printf("%s\n\n", strings.Join(meta, "  "))

	paint := th.MarkerStyle(out.State)
	var state string
	switch {
	case out.State.Completed:
		state = "completed"
	case out.State.Locked:
		state = fmt.Sprintf("locked, %d prerequisites open", len(out.OpenPrerequisites))
	case out.State.LevelLocked:
		state = fmt.Sprintf("needs level %d", out.MinLevel)
	default:
		state = "available"
	}
	a.printf("State  %s %s\n", paint(ui.Marker(out.State, out.MinLevel)), paint(state))
	if out.Wiki != "" {
		a.printf("Wiki   %s\n", th.Muted.Render(out.Wiki))
	}

	if len(out.Objectives) > 0 {
		a.printf("\n%s\n", th.Header.Render("Objectives"))
		for _, o := range out.Objectives {
			text := o.Description
			if text == "" {
				text = o.Type
			}
			line := "  • " + ui.Truncate(text, max(20, a.width-4))
			if len(o.Items) > 0 {
				detail := strings.Join(o.Items, ", ")
				if o.Count > 0 {
					detail = fmt.Sprintf("%dx %s", o.Count, detail)
				}
				if o.FoundInRaid {
					detail += " (FiR)"
				}
				line += "  " + th.Muted.Render(detail)
			}
			if o.Optional {
				line += "  " + th.Muted.Render("optional")
			}
			a.printf("%s\n", line)
		}
	}

	refs := func(title string, list []taskRef) {
		if len(list) == 0 {
			return
		}
		a.printf("\n%s\n", th.Header.Render(title))
		for _, r := range list {
			marker, p := "[ ]", th.Locked.Render
			if r.Completed {
				marker, p = "[x]", th.Done.Render
			}
			a.printf("  %s %s  %s\n", p(marker), p(r.Name), th.Muted.Render(r.Trader))
		}
	}
	refs("Requires", out.Prerequisites)
	refs("From other traders", out.OtherTraders)

	if len(out.Unlocks) > 0 {
		a.printf("\n%s %s\n", th.Header.Render("Leads to"), strings.Join(a.names(out.Unlocks), ", "))
	}
}
