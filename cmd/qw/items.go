package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

// itemStatuses computes the item list for st and fills in owned counts.
func (a *app) itemStatuses(st progress.State, filter analysis.ItemFilter) []analysis.ItemStatus {
	filter.Kappa = st.KappaMode
	filter.Lightkeeper = st.LightkeeperMode
	filter.Collector = a.snap.Capstones.Kappa

	statuses := analysis.ItemStatuses(a.snap.Items, st.Completed, filter, st.Level)
	owned := st.OwnedCounts()
	for i := range statuses {
		statuses[i].Owned = owned[statuses[i].Item.ID]
	}
	return statuses
}

func (a *app) itemsCmd() *cobra.Command {
	var (
		modeArg, sortArg, query string
		active, hideCompleted   bool
		limit                   int
	)
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the found-in-raid items your open tasks need",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			mode, err := analysis.ParseItemMode(modeArg)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			order, err := analysis.ParseItemSort(sortArg)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}

			statuses := a.itemStatuses(a.tracker.State(), analysis.ItemFilter{
				Mode:          mode,
				OnlyActive:    active,
				HideCompleted: hideCompleted,
				Query:         query,
				Sort:          order,
			})
			if limit > 0 && len(statuses) > limit {
				statuses = statuses[:limit]
			}
			if a.jsonOut {
				if statuses == nil {
					statuses = []analysis.ItemStatus{}
				}
				return a.printJSON(statuses)
			}
			a.renderItems(statuses)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&modeArg, "mode", "", "all, exclude-collector or collector-only")
	f.StringVar(&sortArg, "sort", "", "default, count-desc, count-asc, level-asc, name or price")
	f.StringVar(&query, "query", "", "only items whose name contains this")
	f.BoolVar(&active, "active", false, "only items needed by a task open at your level")
	f.BoolVar(&hideCompleted, "hide-completed", false, "hide items nothing open needs anymore")
	f.IntVar(&limit, "limit", 0, "show at most this many items")
	return cmd
}

func (a *app) renderItems(statuses []analysis.ItemStatus) {
	th := a.theme
	if len(statuses) == 0 {
		a.printf("%s\n", th.Muted.Render("No items match."))
		return
	}

	nameWidth := min(36, max(12, a.width-40))
	a.printf("%s %s %s %s %s\n",
		th.Header.Render(ui.PadRight("Item", nameWidth)),
		th.Header.Render(ui.PadLeft("Need", 9)),
		th.Header.Render(ui.PadLeft("Have", 5)),
		th.Header.Render(ui.PadLeft("Find", 5)),
		th.Header.Render(ui.PadLeft("Lvl", 4)))

	for _, s := range statuses {
		name := ui.PadRight(ui.Truncate(s.Item.Name, nameWidth), nameWidth)
		level := "-"
		if s.MinReqLevel != analysis.NoPendingLevel {
			level = strconv.Itoa(s.MinReqLevel)
		}

		paint := th.Muted.Render
		switch {
		case s.RemainingNeeded == 0:
			paint = th.Done.Render
		case s.Shortfall() == 0:
			paint = th.Available.Render
		case s.HasActiveTask:
			paint = th.Header.Render
		}
		a.printf("%s %s %s %s %s\n",
			paint(name),
			ui.PadLeft(fmt.Sprintf("%d/%d", s.RemainingNeeded, s.TotalNeeded), 9),
			ui.PadLeft(strconv.Itoa(s.Owned), 5),
			th.Warning.Render(ui.PadLeft(strconv.Itoa(s.Shortfall()), 5)),
			ui.PadLeft(level, 4))
	}
}

type itemOutput struct {
	Item      model.ItemDetail       `json:"item"`
	Status    *analysis.ItemStatus   `json:"status,omitempty"`
	Count     progress.ItemCount     `json:"count"`
	Tasks     []analysis.RelatedTask `json:"tasks"`
	Shortfall int                    `json:"shortfall"`
}

func (a *app) itemCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "item <item> [+n|-n]",
		Short: "Show an item or change how many you have put aside",
		Long: `Show an item with the tasks that need it, or change the count you have
put aside by +n or -n. The count never drops below zero. Flags go before
the item name.`,
		Example: `  qw item "gas analyzer" +1
  qw item GasAn -1
  qw item --notes "keep two in stash" salewa`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var delta int
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("%w: count change must look like +2 or -1, got %q", errUsage, args[1])
				}
				delta = n
			}
			if err := a.loadAll(cmd.Context()); err != nil {
				return err
			}
			item, err := a.resolveItem(args[0])
			if err != nil {
				return err
			}

			if delta != 0 {
				if _, err := a.tracker.AdjustItem(item.ID, delta); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("notes") {
				if _, err := a.tracker.SetItemNotes(item.ID, notes); err != nil {
					return err
				}
			}

			st := a.tracker.State()
			out := itemOutput{Item: item, Count: st.Item(item.ID)}
			for _, s := range a.itemStatuses(st, analysis.ItemFilter{}) {
				if s.Item.ID == item.ID {
					out.Status = &s
					out.Tasks = s.RelatedTasks
					out.Shortfall = s.Shortfall()
					break
				}
			}
			if out.Tasks == nil {
				out.Tasks = []analysis.RelatedTask{}
			}
			if a.jsonOut {
				return a.printJSON(out)
			}
			a.renderItem(out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&notes, "notes", "", "set a note on the item (empty clears it)")
	// stop at the item name so "-1" reaches Args instead of the flag parser
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) renderItem(out itemOutput) {
	th := a.theme
	title := out.Item.Name
	if out.Item.ShortName != "" && out.Item.ShortName != out.Item.Name {
		title += " (" + out.Item.ShortName + ")"
	}
	a.printf("%s\n", th.Title.Render(title))

	if out.Status != nil {
		a.printf("Need   %d of %d still open\n", out.Status.RemainingNeeded, out.Status.TotalNeeded)
	}
	a.printf("Have   %d", out.Count.Owned)
	if !out.Count.UpdatedAt.IsZero() {
		a.printf(" %s", th.Muted.Render("("+ui.FormatTimeRel(out.Count.UpdatedAt)+")"))
	}
	a.printf("\n")
	if out.Shortfall > 0 {
		a.printf("Find   %s\n", th.Warning.Render(strconv.Itoa(out.Shortfall)))
	}
	if out.Item.Avg24hPrice > 0 {
		a.printf("Price  %d ₽\n", out.Item.Avg24hPrice)
	}
	if out.Count.Notes != "" {
		a.printf("Notes  %s\n", out.Count.Notes)
	}

	if len(out.Tasks) == 0 {
		return
	}
	a.printf("\n%s\n", th.Header.Render("Needed by"))
	for _, rt := range out.Tasks {
		marker, paint := "[ ]", th.Header.Render
		if rt.Completed {
			marker, paint = "[x]", th.Done.Render
		}
		a.printf("  %s %s %s\n", paint(marker),
			paint(fmt.Sprintf("%dx %s", rt.Count, ui.Truncate(rt.TaskName, a.width/2))),
			th.Muted.Render(fmt.Sprintf("lvl %d", rt.MinPlayerLevel)))
	}
}
