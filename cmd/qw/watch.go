package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/watcher"
)

func (a *app) watchCmd() *cobra.Command {
	var poll bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render status whenever the progress store changes",
		Long: `Print the status and print it again every time the progress store is
written, for example by qw running in another terminal. Stops on Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.loadAll(ctx); err != nil {
				return err
			}

			w, err := watcher.New(a.source.Path,
				watcher.WithDebounceDuration(a.cfg.Watch.Debounce),
				watcher.WithPollInterval(a.cfg.Watch.PollInterval),
				watcher.WithForcePoll(a.cfg.Watch.ForcePoll || poll),
				watcher.WithOnError(func(err error) {
					debug.Log("watch %s: %v", a.source.Path, err)
				}),
			)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("watching %s: %w", a.source.Path, err)
			}
			defer w.Stop()

			if err := a.renderWatch(); err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-w.Changed():
					if err := a.tracker.Reload(); err != nil {
						fmt.Fprintf(a.errOut, "reload failed: %v\n", err)
						continue
					}
					if err := a.renderWatch(); err != nil {
						return err
					}
				}
			}
		}),
	}
	cmd.Flags().BoolVar(&poll, "poll", false, "poll the store instead of using file system events")
	return cmd
}

func (a *app) renderWatch() error {
	out := a.status(a.tracker.State())
	if a.jsonOut {
		return a.printJSON(out)
	}
	a.printf("%s\n", a.theme.Muted.Render("── "+time.Now().Format("15:04:05")+" ──"))
	a.renderStatus(out)
	a.printf("\n")
	return nil
}
