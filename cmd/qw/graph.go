package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/loader"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

// modeKeeps reports whether t is shown under the enabled capstone modes.
func modeKeeps(st progress.State, t model.Task) bool {
	if !st.KappaMode && !st.LightkeeperMode {
		return true
	}
	return st.KappaMode && analysis.RequiredFor(t, analysis.ModeKappa) ||
		st.LightkeeperMode && analysis.RequiredFor(t, analysis.ModeLightkeeper)
}

// view is the subgraph of the tasks of trader ("" for all) that the modes
// keep. A trader view lists a repeated quest name once.
func (a *app) view(st progress.State, trader string) *analysis.Graph {
	if trader == "" {
		return a.snap.Graph.Subgraph(func(t model.Task) bool { return modeKeeps(st, t) })
	}
	keep := make(map[string]bool)
	for _, t := range loader.UniqueTasks(loader.FilterByTrader(a.snap.Tasks, trader)) {
		keep[t.ID] = true
	}
	return a.snap.Graph.Subgraph(func(t model.Task) bool {
		return keep[t.ID] && modeKeeps(st, t)
	})
}

type treeOutput struct {
	Trader     string              `json:"trader"`
	Completion analysis.Completion `json:"completion"`
	Tree       []*ui.TaskNode      `json:"tree"`
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <trader>",
		Short: "Show a trader's tasks as a prerequisite tree",
		Long: `Show a trader's tasks as a tree from the tasks without prerequisites
down to the tasks they unlock. Markers: [x] done, [ ] available,
[L] locked by a prerequisite, [lvl N] needs level N.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			trader, err := a.resolveTrader(args[0])
			if err != nil {
				return err
			}

			st := a.tracker.State()
			view := a.view(st, trader)
			out := treeOutput{
				Trader:     trader,
				Completion: analysis.Stats(view.Tasks(), st.Completed),
				Tree:       ui.BuildTaskTree(view, ui.Evaluator(a.snap.Graph, st.Completed, st.Level)),
			}
			if a.jsonOut {
				return a.printJSON(out)
			}

			a.printf("%s  %s\n\n", a.theme.Title.Render(trader),
				a.theme.Muted.Render(fmt.Sprintf("%d/%d done", out.Completion.Completed, out.Completion.Total)))
			a.printf("%s", ui.RenderTree(a.theme, out.Tree, a.width))
			return nil
		}),
	}
}

type layerTask struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Trader string             `json:"trader"`
	State  analysis.LockState `json:"state"`
}

type layerOutput struct {
	Depth int         `json:"depth"`
	Tasks []layerTask `json:"tasks"`
}

func (a *app) layersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers [trader]",
		Short: "Group tasks by prerequisite depth",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			var trader string
			if len(args) == 1 {
				var err error
				if trader, err = a.resolveTrader(args[0]); err != nil {
					return err
				}
			}

			st := a.tracker.State()
			view := a.view(st, trader)
			state := ui.Evaluator(a.snap.Graph, st.Completed, st.Level)

			var out []layerOutput
			for depth, ids := range view.Layers() {
				layer := layerOutput{Depth: depth}
				for _, id := range ids {
					t := view.Task(id)
					layer.Tasks = append(layer.Tasks, layerTask{ID: id, Name: t.Name, Trader: t.Trader.Name, State: state(id)})
				}
				out = append(out, layer)
			}
			if a.jsonOut {
				return a.printJSON(out)
			}

			if len(out) == 0 {
				a.printf("%s\n", a.theme.Muted.Render("No tasks."))
				return nil
			}
			for _, layer := range out {
				a.printf("%s\n", a.theme.Header.Render(fmt.Sprintf("Depth %d (%d)", layer.Depth, len(layer.Tasks))))
				for _, t := range layer.Tasks {
					task := view.Task(t.ID)
					paint := a.theme.MarkerStyle(t.State)
					marker := ui.Marker(t.State, task.MinPlayerLevel)
					a.printf("  %s %s %s\n", paint(marker), paint(ui.Truncate(t.Name, a.width/2)),
						a.theme.Muted.Render(t.Trader))
				}
			}
			return nil
		}),
	}
}

func (a *app) cyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "Report circular prerequisite chains in the dataset",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.loadGraph(cmd.Context()); err != nil {
				return err
			}
			g := a.snap.Graph
			cycles := g.Cycles()
			if a.jsonOut {
				return a.printJSON(struct {
					Cycles [][]string `json:"cycles"`
				}{Cycles: cycles})
			}

			if len(cycles) == 0 {
				a.printf("%s\n", a.theme.Available.Render(fmt.Sprintf("No cycles in %d tasks.", g.Len())))
				return nil
			}
			a.printf("%s\n", a.theme.Warning.Render(fmt.Sprintf("%d cycles found:", len(cycles))))
			for _, cycle := range cycles {
				names := make([]string, 0, len(cycle)+1)
				for _, id := range cycle {
					names = append(names, g.Task(id).Name)
				}
				names = append(names, g.Task(cycle[0]).Name)
				a.printf("  %s\n", strings.Join(names, " → "))
			}
			return nil
		}),
	}
}
