package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/internal/datasource"
	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/loader"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/search"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

// app is the state shared by all subcommands of one invocation. The dataset
// and the progress store are opened lazily by the commands that need them.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	dataDir    string
	storePath  string
	jsonOut    bool
	color      string

	cfg   config.Config
	theme *ui.Theme
	width int

	snap  *datasource.Snapshot
	index *search.Index

	warnMu   sync.Mutex // the loader reads files concurrently
	warnings []string

	store   progress.Store
	source  datasource.StoreSource
	tracker *progress.Tracker
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "qw",
		Short: "Track quest progress over the task dependency graph",
		Long: `qw tracks which quests you have completed and derives from the
prerequisite graph what is locked, what is available at your level and
which found-in-raid items you still need.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/qw/config.yaml)")
	f.StringVar(&a.dataDir, "data-dir", "", "directory holding "+loader.TasksFileName)
	f.StringVar(&a.storePath, "store", "", "progress store file (.json, or .db for SQLite)")
	f.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")
	f.StringVar(&a.color, "color", "", "color output: auto, always or never")

	root.AddCommand(
		a.statusCmd(),
		a.treeCmd(),
		a.availableCmd(),
		a.showCmd(),
		a.toggleCmd(),
		a.completeCmd(),
		a.levelCmd(),
		a.modeCmd(),
		a.itemsCmd(),
		a.itemCmd(),
		a.findCmd(),
		a.layersCmd(),
		a.cyclesCmd(),
		a.exportCmd(),
		a.watchCmd(),
		a.resetCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the configuration and applies the global flags.
func (a *app) setup() error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
		cfg.ApplyEnv()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.storePath != "" {
		cfg.Store.Path = a.storePath
		cfg.Store.Backend = config.BackendForPath(a.storePath)
	}
	if a.color != "" {
		cfg.UI.Color = strings.ToLower(a.color)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.theme = ui.NewTheme(a.out, cfg.UI.Color)
	a.width = ui.TerminalWidth(a.out, cfg.UI.Width)
	return nil
}

// run wraps a command body so the store is closed however it returns.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		debug.Log("closing store: %v", err)
	}
	a.store = nil
	a.tracker = nil
}

// loadGraph loads the dataset and builds the search index.
func (a *app) loadGraph(ctx context.Context) error {
	if a.snap != nil {
		return nil
	}
	snap, err := datasource.LoadGraph(ctx, a.cfg, loader.ParseOptions{
		WarningHandler: func(msg string) {
			a.warnMu.Lock()
			defer a.warnMu.Unlock()
			a.warnings = append(a.warnings, msg)
			debug.Log("loader: %s", msg)
		},
	})
	if err != nil {
		return err
	}
	if n := len(a.warnings); n > 0 && !debug.Enabled() {
		fmt.Fprintf(a.errOut, "warning: skipped %d malformed records (QW_DEBUG=1 for details)\n", n)
	}
	a.snap = snap
	a.index = search.NewIndex(snap.Tasks, snap.Items.ItemsIndex)
	return nil
}

// openTracker opens the progress store.
func (a *app) openTracker() error {
	if a.tracker != nil {
		return nil
	}
	store, src, err := datasource.OpenStore(a.cfg)
	if err != nil {
		return err
	}
	tr, err := progress.NewTracker(store, a.cfg.DefaultLevel)
	if err != nil {
		store.Close()
		return err
	}
	a.store, a.source, a.tracker = store, src, tr
	return nil
}

// loadAll is loadGraph plus openTracker.
func (a *app) loadAll(ctx context.Context) error {
	if err := a.loadGraph(ctx); err != nil {
		return err
	}
	return a.openTracker()
}

// visibleTasks are the tasks the enabled capstone modes keep.
func (a *app) visibleTasks(st progress.State) []model.Task {
	return analysis.FilterByModes(a.snap.Tasks, st.KappaMode, st.LightkeeperMode)
}

// resolveTask maps a command line argument to a task of the graph.
func (a *app) resolveTask(query string) (model.Task, error) {
	res, err := a.index.Resolve(query, search.KindTask)
	if err != nil {
		return model.Task{}, err
	}
	task := a.snap.Graph.Task(res.ID)
	if task == nil {
		return model.Task{}, fmt.Errorf("task %q: %w", res.ID, analysis.ErrUnknownTask)
	}
	return *task, nil
}

// resolveItem maps a command line argument to an indexed item.
func (a *app) resolveItem(query string) (model.ItemDetail, error) {
	res, err := a.index.Resolve(query, search.KindItem)
	if err != nil {
		return model.ItemDetail{}, err
	}
	item := a.snap.Items.FindItem(res.ID)
	if item == nil {
		return model.ItemDetail{}, fmt.Errorf("item %q: %w", res.ID, search.ErrNoMatch)
	}
	return *item, nil
}

// resolveTrader matches a trader name or slug, case-insensitively.
func (a *app) resolveTrader(arg string) (string, error) {
	names := loader.TraderNames(a.snap.Tasks)
	want := loader.SlugToTraderName(arg)
	for _, name := range names {
		if strings.EqualFold(name, arg) || strings.EqualFold(name, want) {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown trader %q (have: %s)", arg, strings.Join(names, ", "))
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage")
