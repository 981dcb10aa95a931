package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/loader"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/search"
	"github.com/vanderheijden86/questwork/pkg/testutil"
	"github.com/vanderheijden86/questwork/pkg/version"
)

// Prapor: Debut <- Search Mission <- Luxurious Life (level 20)
// Therapist: Shortage (level 2, hands over 3 Salewa)
// Fence: Collector <- Shortage
func fixtureTasks() []model.Task {
	named := func(t model.Task, name string, xp int) model.Task {
		t.Name = name
		t.Experience = xp
		return t
	}
	shortage := named(testutil.Task("t1", "Therapist", 2), "Shortage", 150)
	shortage.Objectives = []model.Objective{{
		ID:          "o-salewa",
		Type:        model.ObjectiveGiveItem,
		Description: "Hand over Salewa",
		Count:       3,
		FoundInRaid: true,
		Item:        &model.ItemRef{ID: "i-salewa", Name: "Salewa first aid kit", ShortName: "Salewa"},
	}}

	return []model.Task{
		named(testutil.Task("p1", "Prapor", 1), "Debut", 100),
		named(testutil.Task("p2", "Prapor", 3, "p1"), "Search Mission", 200),
		named(testutil.Task("p3", "Prapor", 20, "p2"), "Luxurious Life", 300),
		shortage,
		named(testutil.Task("col", "Fence", 5, "t1"), "Collector", 1000),
	}
}

type env struct {
	t     *testing.T
	data  string
	store string
}

func newEnv(t *testing.T, tasks []model.Task) *env {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("QW_STORE", "")
	t.Setenv("QW_DATA_DIR", "")
	t.Setenv("NO_COLOR", "")
	return &env{
		t:     t,
		data:  testutil.WriteDataDir(t, loader.TasksFileName, tasks),
		store: filepath.Join(t.TempDir(), "progress.json"),
	}
}

func (e *env) args(args ...string) []string {
	return append([]string{"--data-dir", e.data, "--store", e.store, "--color", "never"}, args...)
}

// run executes one qw invocation and returns its stdout.
func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(e.args(args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("qw %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (e *env) runJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	if err := json.Unmarshal([]byte(out), v); err != nil {
		e.t.Fatalf("qw %s: bad JSON: %v\n%s", strings.Join(args, " "), err, out)
	}
}

func TestVersion(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	if got := e.mustRun("version"); got != "qw "+version.Version+"\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestStatusFresh(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var st statusOutput
	e.runJSON(&st, "status")
	if st.Level != 1 || st.KappaMode || st.LightkeeperMode {
		t.Errorf("unexpected fresh state %+v", st)
	}
	if st.Overall.Completed != 0 || st.Overall.Total != 5 {
		t.Errorf("overall = %+v", st.Overall)
	}
	if st.Available != 1 {
		t.Errorf("only Debut is available at level 1, got %d", st.Available)
	}
	if st.ExperienceTotal != 1750 || st.ExperienceEarned != 0 {
		t.Errorf("experience = %d/%d", st.ExperienceEarned, st.ExperienceTotal)
	}
	var traders []string
	for _, tc := range st.Traders {
		traders = append(traders, tc.Trader)
	}
	if strings.Join(traders, ",") != "Prapor,Therapist,Fence" {
		t.Errorf("trader order = %v", traders)
	}

	text := e.mustRun("status", "--timings")
	for _, want := range []string{"Quest progress  level 1", "Prapor", "Overall", "Available    1 tasks", "Timings"} {
		if !strings.Contains(text, want) {
			t.Errorf("status output missing %q:\n%s", want, text)
		}
	}
}

func TestCompleteExpandsAndRaisesLevel(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var out completeOutput
	e.runJSON(&out, "complete", "Luxurious Life")
	testutil.AssertSameIDs(t, []string{"p1", "p2", "p3"}, out.Added)
	if out.Level != 20 || !out.LevelRaised {
		t.Errorf("level = %d raised=%v, want 20", out.Level, out.LevelRaised)
	}

	// persisted for the next invocation
	var st statusOutput
	e.runJSON(&st, "status")
	if st.Level != 20 || st.Overall.Completed != 3 {
		t.Errorf("after complete: level %d, %d completed", st.Level, st.Overall.Completed)
	}

	// idempotent
	var again completeOutput
	e.runJSON(&again, "complete", "p3")
	if len(again.Added) != 0 || again.LevelRaised {
		t.Errorf("second complete should change nothing: %+v", again)
	}
	if text := e.mustRun("complete", "p3"); !strings.Contains(text, "already complete") {
		t.Errorf("got %q", text)
	}
}

func TestCompleteDryRun(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var out completeOutput
	e.runJSON(&out, "complete", "--dry-run", "p2")
	if !out.DryRun || len(out.Added) != 2 || out.Level != 3 {
		t.Errorf("unexpected dry run %+v", out)
	}

	var st statusOutput
	e.runJSON(&st, "status")
	if st.Overall.Completed != 0 || st.Level != 1 {
		t.Errorf("dry run must not save: %+v", st)
	}
}

func TestToggle(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var on toggleOutput
	e.runJSON(&on, "toggle", "debut")
	if !on.Completed || on.ID != "p1" {
		t.Fatalf("unexpected toggle %+v", on)
	}
	testutil.AssertSameIDs(t, []string{"p2"}, on.Unlocks)

	var off toggleOutput
	e.runJSON(&off, "toggle", "p1")
	if off.Completed {
		t.Error("second toggle should reopen")
	}
}

func TestToggleReopenKeepsDependents(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.mustRun("complete", "p2")

	var out toggleOutput
	e.runJSON(&out, "toggle", "p1")
	if out.Completed {
		t.Fatal("p1 should be reopened")
	}
	testutil.AssertSameIDs(t, []string{"p2"}, out.StillDone)

	var st statusOutput
	e.runJSON(&st, "status")
	if st.Overall.Completed != 1 {
		t.Errorf("Search Mission should stay complete, %d completed", st.Overall.Completed)
	}
}

func TestAvailable(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.mustRun("level", "2")

	var all []taskSummary
	e.runJSON(&all, "available")
	var ids []string
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	testutil.AssertSameIDs(t, []string{"p1", "t1"}, ids)

	var therapist []taskSummary
	e.runJSON(&therapist, "available", "--trader", "therapist")
	if len(therapist) != 1 || therapist[0].Name != "Shortage" {
		t.Errorf("trader filter: %+v", therapist)
	}

	text := e.mustRun("available")
	if !strings.Contains(text, "[ ] Debut") || !strings.Contains(text, "2 tasks available at level 2") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestLevel(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	if got := e.mustRun("level"); got != "Level 1\n" {
		t.Errorf("got %q", got)
	}
	if got := e.mustRun("level", "0"); got != "Level 1\n" {
		t.Errorf("level is clamped to 1, got %q", got)
	}
	if got := e.mustRun("level", "42"); got != "Level 42\n" {
		t.Errorf("got %q", got)
	}
	if _, err := e.run("level", "abc"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestModeFiltersViews(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	if got := e.mustRun("mode", "kappa", "on"); !strings.Contains(got, "kappa mode on") {
		t.Errorf("got %q", got)
	}

	var st statusOutput
	e.runJSON(&st, "status")
	if !st.KappaMode || st.Overall.Total != 2 {
		t.Errorf("kappa view should keep Shortage and Collector: %+v", st)
	}

	var tree treeOutput
	e.runJSON(&tree, "tree", "prapor")
	if len(tree.Tree) != 0 {
		t.Errorf("no Prapor task leads to Collector: %+v", tree.Tree)
	}

	if got := e.mustRun("mode", "KAPPA", "off"); !strings.Contains(got, "kappa mode off") {
		t.Errorf("got %q", got)
	}
	if _, err := e.run("mode", "pvp", "on"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for unknown mode, got %v", err)
	}
	if _, err := e.run("mode", "kappa", "maybe"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for bad switch, got %v", err)
	}
}

func TestTree(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	out := e.mustRun("tree", "prapor")
	for _, want := range []string{
		"Prapor  0/3 done",
		"[ ] Debut\n",
		"└── [L] Search Mission\n",
		"    └── [L] Luxurious Life\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}

	if _, err := e.run("tree", "nobody"); err == nil || !strings.Contains(err.Error(), "Prapor") {
		t.Errorf("unknown trader should list the known ones, got %v", err)
	}
}

func TestLayers(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var layers []layerOutput
	e.runJSON(&layers, "layers")
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	want := [][]string{{"p1", "t1"}, {"p2", "col"}, {"p3"}}
	for i, layer := range layers {
		var ids []string
		for _, task := range layer.Tasks {
			ids = append(ids, task.ID)
		}
		testutil.AssertSameIDs(t, want[i], ids)
	}

	text := e.mustRun("layers", "Prapor")
	if !strings.Contains(text, "Depth 2 (1)") {
		t.Errorf("unexpected layers output:\n%s", text)
	}
}

func TestCycles(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	if out := e.mustRun("cycles"); !strings.Contains(out, "No cycles in 5 tasks") {
		t.Errorf("got %q", out)
	}

	cyclic := newEnv(t, []model.Task{
		testutil.Task("a", "Jaeger", 1, "b"),
		testutil.Task("b", "Jaeger", 1, "a"),
	})
	var out struct {
		Cycles [][]string `json:"cycles"`
	}
	cyclic.runJSON(&out, "cycles")
	if len(out.Cycles) != 1 {
		t.Fatalf("expected one cycle, got %v", out.Cycles)
	}
	testutil.AssertSameIDs(t, []string{"a", "b"}, out.Cycles[0])

	// every other command still terminates on the cyclic data
	var st statusOutput
	cyclic.runJSON(&st, "status")
	if st.Available != 0 {
		t.Errorf("tasks in a cycle lock each other, %d available", st.Available)
	}
	if text := cyclic.mustRun("tree", "jaeger"); !strings.Contains(text, "(cycle)") {
		t.Errorf("tree should mark the cycle:\n%s", text)
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.mustRun("toggle", "p1")

	mmd := e.mustRun("export", "--format", "mermaid", "--trader", "prapor")
	for _, want := range []string{"graph TD\n", `p1["Debut"]`, "class p1 done", "class p2 gated", "class p3 locked", "p1 --> p2", "p2 --> p3"} {
		if !strings.Contains(mmd, want) {
			t.Errorf("mermaid export missing %q:\n%s", want, mmd)
		}
	}
	if strings.Contains(mmd, "t1") {
		t.Errorf("trader filter ignored:\n%s", mmd)
	}

	path := filepath.Join(t.TempDir(), "progress.md")
	if out := e.mustRun("export", "-o", path, "--diagram"); out != "" {
		t.Errorf("export to a file should leave stdout empty, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Quest Progress", "| **Completed** | 1 / 5 (20%) |", "```mermaid", "- ✅ Debut", "| Salewa first aid kit | 3 | 0 | 3 |"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("markdown export missing %q:\n%s", want, data)
		}
	}

	if _, err := e.run("export", "--format", "pdf"); !errors.Is(err, errUsage) {
		t.Errorf("unknown format should be a usage error, got %v", err)
	}
}

func TestShow(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var col showOutput
	e.runJSON(&col, "show", "collector")
	if col.ID != "col" || col.Trader != "Fence" || col.Experience != 1000 || !col.Kappa || col.Lightkeeper {
		t.Errorf("unexpected header fields %+v", col)
	}
	if !col.State.Locked || col.State.Available {
		t.Errorf("Collector should be locked, got %+v", col.State)
	}
	if len(col.OpenPrerequisites) != 1 || col.OpenPrerequisites[0] != "t1" {
		t.Errorf("open prerequisites = %v; want [t1]", col.OpenPrerequisites)
	}
	if len(col.OtherTraders) != 1 || col.OtherTraders[0].Trader != "Therapist" || col.OtherTraders[0].Name != "Shortage" {
		t.Errorf("other trader prerequisites = %+v", col.OtherTraders)
	}
	if col.Wiki != "https://escapefromtarkov.fandom.com/wiki/Collector" {
		t.Errorf("wiki = %q", col.Wiki)
	}

	var shortage showOutput
	e.runJSON(&shortage, "show", "t1")
	if !shortage.State.LevelLocked || shortage.State.Locked {
		t.Errorf("Shortage at level 1 should be level-locked only, got %+v", shortage.State)
	}
	if len(shortage.Objectives) != 1 {
		t.Fatalf("objectives = %+v", shortage.Objectives)
	}
	obj := shortage.Objectives[0]
	if obj.Type != model.ObjectiveGiveItem || obj.Count != 3 || !obj.FoundInRaid || len(obj.Items) != 1 || obj.Items[0] != "Salewa" {
		t.Errorf("objective = %+v", obj)
	}
	if len(shortage.Unlocks) != 1 || shortage.Unlocks[0] != "col" {
		t.Errorf("unlocks = %v; want [col]", shortage.Unlocks)
	}

	e.mustRun("complete", "t1")
	var after showOutput
	e.runJSON(&after, "show", "col")
	if after.State.Locked || !after.State.LevelLocked {
		t.Errorf("Collector should only wait for level 5 now, got %+v", after.State)
	}
	if len(after.OpenPrerequisites) != 0 || !after.OtherTraders[0].Completed {
		t.Errorf("Shortage should count as done: %+v", after)
	}

	out := e.mustRun("show", "t1")
	for _, want := range []string{
		"Shortage\n",
		"Therapist  lvl 2  150 XP  κ kappa\n",
		"State  [x] completed\n",
		"Wiki   https://escapefromtarkov.fandom.com/wiki/Shortage\n",
		"  • Hand over Salewa  3x Salewa (FiR)\n",
		"Leads to Collector\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	if _, err := e.run("show", "zzzzqqq"); !errors.Is(err, search.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestItems(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var items []analysis.ItemStatus
	e.runJSON(&items, "items")
	if len(items) != 1 || items[0].Item.ID != "i-salewa" || items[0].RemainingNeeded != 3 {
		t.Fatalf("unexpected items %+v", items)
	}

	var added itemOutput
	e.runJSON(&added, "item", "salewa", "+2")
	if added.Count.Owned != 2 || added.Shortfall != 1 {
		t.Errorf("after +2: owned %d shortfall %d", added.Count.Owned, added.Shortfall)
	}

	var clamped itemOutput
	e.runJSON(&clamped, "item", "Salewa", "-5")
	if clamped.Count.Owned != 0 || clamped.Shortfall != 3 {
		t.Errorf("owned should not go below zero: %+v", clamped.Count)
	}

	var noted itemOutput
	e.runJSON(&noted, "item", "--notes", "stash", "i-salewa")
	if noted.Count.Notes != "stash" {
		t.Errorf("notes = %q", noted.Count.Notes)
	}

	e.mustRun("toggle", "Shortage")
	var open []analysis.ItemStatus
	e.runJSON(&open, "items", "--hide-completed")
	if len(open) != 0 {
		t.Errorf("nothing open needs Salewa anymore: %+v", open)
	}

	var collectorOnly []analysis.ItemStatus
	e.runJSON(&collectorOnly, "items", "--mode", "collector-only")
	if len(collectorOnly) != 0 {
		t.Errorf("Collector hands over nothing: %+v", collectorOnly)
	}

	if _, err := e.run("items", "--sort", "weight"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for bad sort, got %v", err)
	}
	if _, err := e.run("item", "salewa", "lots"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for bad count, got %v", err)
	}

	text := e.mustRun("item", "salewa")
	for _, want := range []string{"Salewa first aid kit (Salewa)", "Needed by", "[x] 3x Shortage"} {
		if !strings.Contains(text, want) {
			t.Errorf("item output missing %q:\n%s", want, text)
		}
	}
}

func TestFind(t *testing.T) {
	e := newEnv(t, fixtureTasks())

	var results []search.Result
	e.runJSON(&results, "find", "salewa")
	if len(results) == 0 || results[0].ID != "i-salewa" {
		t.Errorf("unexpected results %+v", results)
	}

	var tasks []search.Result
	e.runJSON(&tasks, "find", "--kind", "task", "search", "mission")
	if len(tasks) == 0 || tasks[0].ID != "p2" || !tasks[0].Exact {
		t.Errorf("unexpected task results %+v", tasks)
	}

	if out := e.mustRun("find", "zzzzqqq"); !strings.Contains(out, "No matches") {
		t.Errorf("got %q", out)
	}
	if _, err := e.run("find", "--kind", "trader", "x"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestUnknownTask(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	_, err := e.run("toggle", "zzzzqqq")
	if !errors.Is(err, search.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestReset(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.mustRun("complete", "p3")

	if _, err := e.run("reset"); !errors.Is(err, errUsage) {
		t.Errorf("reset without --yes should refuse, got %v", err)
	}
	e.mustRun("reset", "--yes")

	var st statusOutput
	e.runJSON(&st, "status")
	if st.Overall.Completed != 0 || st.Level != 1 {
		t.Errorf("reset left progress behind: %+v", st)
	}
}

func TestSQLiteStore(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.store = filepath.Join(t.TempDir(), "progress.db")

	e.mustRun("complete", "p2")
	var st statusOutput
	e.runJSON(&st, "status")
	if st.Store.Backend != "sqlite" || st.Overall.Completed != 2 || st.Level != 3 {
		t.Errorf("unexpected sqlite-backed status %+v", st)
	}
}

func TestMissingDataDir(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.data = t.TempDir()
	if _, err := e.run("status"); err == nil {
		t.Error("expected an error without a tasks file")
	}
}

func TestBadColorFlag(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	var out bytes.Buffer
	root := newRootCmd(&out, &out)
	root.SetArgs([]string{"--data-dir", e.data, "--store", e.store, "--color", "sometimes", "status"})
	if err := root.Execute(); err == nil {
		t.Error("expected invalid color to be rejected")
	}
}

// lockedBuffer is written by the watch command while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReRendersOnStoreChange(t *testing.T) {
	e := newEnv(t, fixtureTasks())
	e.mustRun("level", "3")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "watch:\n  debounce: 10ms\n  poll_interval: 20ms\n  force_poll: true\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	var out lockedBuffer
	root := newRootCmd(&out, &out)
	root.SetArgs(append(e.args("--config", cfgPath, "--json"), "watch"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !strings.Contains(out.String(), want) {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %q in:\n%s", want, out.String())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
	waitFor(`"level": 3`)

	// another process writes the store
	store, err := progress.OpenFileStore(e.store)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := progress.NewTracker(store, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.SetLevel(7); err != nil {
		t.Fatal(err)
	}
	store.Close()

	waitFor(`"level": 7`)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}
