package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/search"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

func (a *app) findCmd() *cobra.Command {
	var (
		kindArg string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Search tasks and items by id or name",
		Long: `Search tasks and items. An exact id or name comes first, then fuzzy
matches on names, best first. Commands taking a task or item accept any
query that find ranks uniquely first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			kind := search.Kind(strings.ToLower(kindArg))
			if kind != "" && kind != search.KindTask && kind != search.KindItem {
				return fmt.Errorf("%w: --kind must be task or item, got %q", errUsage, kindArg)
			}
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}

			results := a.index.Find(strings.Join(args, " "), kind, limit)
			if a.jsonOut {
				if results == nil {
					results = []search.Result{}
				}
				return a.printJSON(results)
			}
			if len(results) == 0 {
				a.printf("%s\n", a.theme.Muted.Render("No matches."))
				return nil
			}

			st := a.tracker.State()
			nameWidth := min(40, a.width/2)
			for _, r := range results {
				badge := a.theme.Info.Render("item")
				if r.Kind == search.KindTask {
					state := a.snap.Graph.Evaluate(r.ID, st.Completed, st.Level)
					level := 0
					if t := a.snap.Graph.Task(r.ID); t != nil {
						level = t.MinPlayerLevel
					}
					badge = a.theme.MarkerStyle(state)(ui.Marker(state, level))
				}
				a.printf("%s %s %s %s\n",
					badge,
					ui.PadRight(ui.Truncate(r.Name, nameWidth), nameWidth),
					a.theme.Info.Render(ui.PadRight(r.Detail, 12)),
					a.theme.Muted.Render(r.ID))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&kindArg, "kind", "", "only tasks or only items")
	cmd.Flags().IntVar(&limit, "limit", 10, "show at most this many results (0 for all)")
	return cmd
}
