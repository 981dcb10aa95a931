package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/export"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		format, traderArg, outPath string
		diagram                    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a Markdown progress report or a Mermaid task graph",
		Long: `Write a Markdown progress report or a Mermaid flowchart of the task
graph. Both honor the capstone modes; --trader narrows them to one trader.`,
		Example: `  qw export --format mermaid --trader prapor > prapor.mmd
  qw export -o progress.md --diagram`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != "markdown" && format != "md" && format != "mermaid" {
				return fmt.Errorf("%w: unknown format %q (want markdown or mermaid)", errUsage, format)
			}
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
			view := a.view(st, trader)
			state := export.StateFunc(ui.Evaluator(a.snap.Graph, st.Completed, st.Level))

			var doc string
			if format == "mermaid" {
				doc = export.GenerateMermaid(view, state, export.MermaidConfig{
					ShowNoDependenciesNode: true,
					ShowTrader:             trader == "",
				})
			} else {
				tasks := progressTasks(view.Tasks())
				title := "Quest Progress"
				if trader != "" {
					title = trader + " Progress"
				}
				doc = export.GenerateMarkdown(export.Report{
					Title:       title,
					GeneratedAt: time.Now(),
					Level:       st.Level,
					Modes:       modeLabel(st.KappaMode, st.LightkeeperMode),
					Overall:     analysis.Stats(tasks, st.Completed),
					Traders:     analysis.StatsByTrader(tasks, st.Completed),
					Graph:       view,
					State:       state,
					Items:       a.itemStatuses(st, analysis.ItemFilter{HideCompleted: true}),
					Diagram:     diagram,
				})
			}

			if outPath == "" || outPath == "-" {
				_, err := fmt.Fprint(a.out, doc)
				return err
			}
			if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(a.errOut, "Wrote %s\n", outPath)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "markdown", "markdown or mermaid")
	f.StringVar(&traderArg, "trader", "", "only this trader's tasks")
	f.StringVarP(&outPath, "output", "o", "", "write to this file instead of stdout")
	f.BoolVar(&diagram, "diagram", false, "embed a Mermaid graph in the Markdown report")
	return cmd
}
