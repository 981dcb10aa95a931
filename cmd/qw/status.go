package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/internal/datasource"
	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

type statusOutput struct {
	Level            int                         `json:"level"`
	KappaMode        bool                        `json:"kappa_mode"`
	LightkeeperMode  bool                        `json:"lightkeeper_mode"`
	Overall          analysis.Completion         `json:"overall"`
	Traders          []analysis.TraderCompletion `json:"traders"`
	ExperienceEarned int                         `json:"experience_earned"`
	ExperienceTotal  int                         `json:"experience_total"`
	Available        int                         `json:"available"`
	Store            datasource.StoreSource      `json:"store"`
	DataDir          string                      `json:"data_dir"`
	Timings          []metrics.TimingStats       `json:"timings,omitempty"`
}

func (a *app) statusCmd() *cobra.Command {
	var timings bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show completion per trader, experience and what is available",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			out := a.status(a.tracker.State())
			if timings {
				out.Timings = metrics.AllTimingStats()
			}
			if a.jsonOut {
				return a.printJSON(out)
			}
			a.renderStatus(out)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&timings, "timings", false, "also print load and graph timings")
	return cmd
}

// progressTasks are the tasks counted by status: quests and hideout
// levels. Trader loyalty levels follow from them and are left out.
func progressTasks(tasks []model.Task) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Type != model.TypeTrader {
			out = append(out, t)
		}
	}
	return out
}

func (a *app) status(st progress.State) statusOutput {
	tasks := progressTasks(a.visibleTasks(st))

	available := progressTasks(analysis.FilterByModes(
		a.snap.Graph.Available(st.Completed, st.Level), st.KappaMode, st.LightkeeperMode))

	return statusOutput{
		Level:            st.Level,
		KappaMode:        st.KappaMode,
		LightkeeperMode:  st.LightkeeperMode,
		Overall:          analysis.Stats(tasks, st.Completed),
		Traders:          analysis.StatsByTrader(tasks, st.Completed),
		ExperienceEarned: analysis.EarnedExperience(tasks, st.Completed),
		ExperienceTotal:  analysis.TotalExperience(tasks),
		Available:        len(available),
		Store:            a.source,
		DataDir:          a.snap.DataDir,
	}
}

func (a *app) renderStatus(out statusOutput) {
	th := a.theme

	header := fmt.Sprintf("Quest progress  level %d", out.Level)
	if m := modeLabel(out.KappaMode, out.LightkeeperMode); m != "" {
		header += "  mode: " + m
	}
	a.printf("%s\n\n", th.Title.Render(header))

	nameWidth := len("Overall")
	for _, tc := range out.Traders {
		nameWidth = max(nameWidth, len(tc.Trader))
	}
	barWidth := min(30, max(10, a.width-nameWidth-24))

	line := func(name string, c analysis.Completion, style func(...string) string) {
		a.printf("  %s %s %s %s\n",
			style(ui.PadRight(name, nameWidth)),
			ui.PadLeft(fmt.Sprintf("%d/%d", c.Completed, c.Total), 9),
			ui.PadLeft(fmt.Sprintf("%d%%", c.Percent), 4),
			th.Bar.Render(ui.ProgressBar(c.Percent, barWidth)))
	}
	for _, tc := range out.Traders {
		line(tc.Trader, tc.Completion, th.Header.Render)
	}
	a.printf("  %s\n", th.Muted.Render(strings.Repeat("─", nameWidth+16+barWidth)))
	line("Overall", out.Overall, th.Title.Render)

	a.printf("\nExperience   %d / %d\n", out.ExperienceEarned, out.ExperienceTotal)
	a.printf("Available    %s\n", th.Available.Render(fmt.Sprintf("%d tasks", out.Available)))
	a.printf("Store        %s\n", th.Muted.Render(out.Store.String()))

	if len(out.Timings) > 0 {
		a.printf("\n%s\n", th.Header.Render("Timings"))
		for _, s := range out.Timings {
			if s.Count == 0 {
				continue
			}
			a.printf("  %s %6d calls  avg %8.3fms  max %8.3fms\n",
				ui.PadRight(s.Name, 18), s.Count, s.AvgMs, s.MaxMs)
		}
	}
}

func modeLabel(kappa, lightkeeper bool) string {
	switch {
	case kappa && lightkeeper:
		return "kappa+lightkeeper"
	case kappa:
		return "kappa"
	case lightkeeper:
		return "lightkeeper"
	}
	return ""
}
