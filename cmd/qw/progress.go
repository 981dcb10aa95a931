package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

type taskSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Trader     string `json:"trader"`
	MinLevel   int    `json:"min_level"`
	Experience int    `json:"experience"`
}

func summarize(t model.Task) taskSummary {
	return taskSummary{ID: t.ID, Name: t.Name, Trader: t.Trader.Name, MinLevel: t.MinPlayerLevel, Experience: t.Experience}
}

func (a *app) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if t := a.snap.Graph.Task(id); t != nil {
			out = append(out, t.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func (a *app) availableCmd() *cobra.Command {
	var traderArg string
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List the tasks you can do right now",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			var trader string
			if traderArg != "" {
				var err error
				if trader, err = a.resolveTrader(traderArg); err != nil {
					return err
				}
			}

			st := a.tracker.State()
			out := []taskSummary{}
			for _, t := range progressTasks(a.snap.Graph.Available(st.Completed, st.Level)) {
				if (trader == "" || t.Trader.Name == trader) && modeKeeps(st, t) {
					out = append(out, summarize(t))
				}
			}
			if a.jsonOut {
				return a.printJSON(out)
			}

			if len(out) == 0 {
				a.printf("%s\n", a.theme.Muted.Render(fmt.Sprintf("Nothing available at level %d.", st.Level)))
				return nil
			}
			nameWidth := min(40, a.width/2)
			for _, t := range out {
				a.printf("%s %s %s %s\n",
					a.theme.Available.Render("[ ]"),
					ui.PadRight(ui.Truncate(t.Name, nameWidth), nameWidth),
					a.theme.Info.Render(ui.PadRight(t.Trader, 12)),
					a.theme.Muted.Render(fmt.Sprintf("lvl %d", t.MinLevel)))
			}
			a.printf("\n%s\n", a.theme.Muted.Render(fmt.Sprintf("%d tasks available at level %d", len(out), st.Level)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&traderArg, "trader", "", "only this trader's tasks")
	return cmd
}

type toggleOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Completed bool     `json:"completed"`
	Unlocks   []string `json:"unlocks,omitempty"`
	StillDone []string `json:"dependents_still_completed,omitempty"`
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task>",
		Short: "Flip one task between done and not done",
		Long: `Flip one task between done and not done. Nothing else changes:
tasks depending on it stay complete when it is reopened.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}

			g := a.snap.Graph
			before := a.tracker.Completed()
			unlocks := g.Unlocks(task.ID, before)
			done, err := a.tracker.Toggle(task.ID)
			if err != nil {
				return err
			}

			out := toggleOutput{ID: task.ID, Name: task.Name, Completed: done}
			if done {
				out.Unlocks = unlocks
			} else {
				for _, id := range g.Descendants(task.ID) {
					if before.Has(id) {
						out.StillDone = append(out.StillDone, id)
					}
				}
			}
			if a.jsonOut {
				return a.printJSON(out)
			}

			if done {
				a.printf("%s %s\n", a.theme.Available.Render("✓ Completed"), task.Name)
				if len(unlocks) > 0 {
					a.printf("  %s %s\n", a.theme.Muted.Render("unlocks:"), strings.Join(a.names(unlocks), ", "))
				}
				return nil
			}
			a.printf("%s %s\n", a.theme.Warning.Render("○ Reopened"), task.Name)
			if n := len(out.StillDone); n > 0 {
				a.printf("  %s\n", a.theme.Muted.Render(fmt.Sprintf("%d dependent tasks stay complete", n)))
			}
			return nil
		}),
	}
}

type completeOutput struct {
	Target      string   `json:"target"`
	Name        string   `json:"name"`
	IDs         []string `json:"ids"`
	Added       []string `json:"added"`
	Level       int      `json:"level"`
	LevelRaised bool     `json:"level_raised"`
	DryRun      bool     `json:"dry_run,omitempty"`
}

func (a *app) completeCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "complete <task>",
		Short: "Complete a task and every prerequisite leading to it",
		Long: `Complete a task together with all of its transitive prerequisites in
one write. If the task needs a higher level than yours, your level is
raised to it. Completing an already completed chain changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}

			before := a.tracker.State()
			exp, err := a.snap.Graph.ForceCompletion(task.ID)
			if err != nil {
				return err
			}
			level := exp.Apply(before.Completed.Clone(), before.Level)
			if !dryRun {
				if exp, err = a.tracker.ForceComplete(a.snap.Graph, task.ID); err != nil {
					return err
				}
				level = a.tracker.Level()
			}

			out := completeOutput{
				Target:      task.ID,
				Name:        task.Name,
				IDs:         exp.IDs,
				Added:       exp.Missing(before.Completed),
				Level:       level,
				LevelRaised: level > before.Level,
				DryRun:      dryRun,
			}
			if out.Added == nil {
				out.Added = []string{}
			}
			if a.jsonOut {
				return a.printJSON(out)
			}

			verb := "✓ Completed"
			if dryRun {
				verb = "Would complete"
			}
			switch n := len(out.Added); {
			case n == 0:
				a.printf("%s\n", a.theme.Muted.Render(fmt.Sprintf("%s and its prerequisites are already complete.", task.Name)))
			case n == 1:
				a.printf("%s %s\n", a.theme.Available.Render(verb), task.Name)
			default:
				a.printf("%s %s and %d prerequisites\n", a.theme.Available.Render(verb), task.Name, n-1)
			}
			if out.LevelRaised {
				a.printf("  %s\n", a.theme.Gated.Render(fmt.Sprintf("level %d -> %d", before.Level, level)))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be completed without saving")
	return cmd
}

func (a *app) levelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "level [n]",
		Short: "Show or set your player level",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.openTracker(); err != nil {
				return err
			}
			level := a.tracker.Level()
			if len(args) == 1 {
				n, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("%w: level must be a number, got %q", errUsage, args[0])
				}
				if level, err = a.tracker.SetLevel(n); err != nil {
					return err
				}
			}
			if a.jsonOut {
				return a.printJSON(struct {
					Level int `json:"level"`
				}{level})
			}
			a.printf("Level %d\n", level)
			return nil
		}),
	}
}

// parseSwitch accepts on/off and the strconv.ParseBool spellings.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: want on or off, got %q", errUsage, s)
	}
	return b, nil
}

func (a *app) modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode <kappa|lightkeeper> [on|off]",
		Short: "Show or switch a capstone filter",
		Long: `Show or switch a capstone filter. With kappa on, only tasks leading
to the Collector quest are shown; with lightkeeper on, only tasks leading to
the Lightkeeper unlock. With both on, either qualifies.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			mode := analysis.CapstoneMode(strings.ToLower(args[0]))
			if !mode.IsValid() {
				return fmt.Errorf("%w: unknown mode %q (want kappa or lightkeeper)", errUsage, args[0])
			}
			if err := a.openTracker(); err != nil {
				return err
			}
			if len(args) == 2 {
				on, err := parseSwitch(args[1])
				if err != nil {
					return err
				}
				if err := a.tracker.SetMode(mode, on); err != nil {
					return err
				}
			}

			st := a.tracker.State()
			on := st.KappaMode
			if mode == analysis.ModeLightkeeper {
				on = st.LightkeeperMode
			}
			if a.jsonOut {
				return a.printJSON(struct {
					Mode analysis.CapstoneMode `json:"mode"`
					On   bool                  `json:"on"`
				}{mode, on})
			}
			state := a.theme.Muted.Render("off")
			if on {
				state = a.theme.Available.Render("on")
			}
			a.printf("%s mode %s\n", mode, state)
			return nil
		}),
	}
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("%w: reset erases all progress, pass --yes to confirm", errUsage)
			}
			if err := a.openTracker(); err != nil {
				return err
			}
			if err := a.tracker.Reset(); err != nil {
				return err
			}
			a.printf("Progress reset (%s).\n", a.source.Path)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
