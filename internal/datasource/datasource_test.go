package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/loader"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/progress"
	"github.com/vanderheijden86/questwork/pkg/testutil"
)

func fixtureTasks() []model.Task {
	gas := testutil.Task("q-gas", "Therapist", 8)
	gas.Name = "Sanitary Standards"
	gas.Objectives = []model.Objective{{
		ID:          "o1",
		Type:        model.ObjectiveGiveItem,
		Description: "Hand over the gas analyzer",
		Count:       2,
		FoundInRaid: true,
		Item:        &model.ItemRef{ID: "i-gas", Name: "Gas analyzer", ShortName: "GasAn"},
	}}

	collector := testutil.Task("q-collector", "Fence", 15, "q-gas")
	collector.Name = "Collector"

	side := testutil.Task("q-side", "Skier", 3)
	side.Name = "Side quest"

	return []model.Task{gas, collector, side}
}

func TestLoadGraph(t *testing.T) {
	dir := testutil.WriteDataDir(t, loader.TasksFileName, fixtureTasks())
	cfg := config.DefaultConfig()
	cfg.DataDir = dir

	snap, err := LoadGraph(context.Background(), cfg, loader.ParseOptions{WarningHandler: func(string) {}})
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	if snap.DataDir != dir {
		t.Errorf("DataDir = %q", snap.DataDir)
	}
	if snap.Graph.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", snap.Graph.Len())
	}
	if !snap.Graph.Task("q-gas").IsCollectorRequirement {
		t.Error("prerequisite of the kappa capstone should be flagged")
	}
	if !snap.Graph.Task("q-collector").IsCollectorRequirement {
		t.Error("the capstone itself should be flagged")
	}
	if snap.Graph.Task("q-side").IsCollectorRequirement {
		t.Error("unrelated task flagged")
	}

	if len(snap.Items.ItemsIndex) != 1 {
		t.Fatalf("expected one indexed item, got %d", len(snap.Items.ItemsIndex))
	}
	req := snap.Items.ItemsIndex[0].RequiredByTasks
	if len(req) != 1 || !req[0].IsCollectorRequirement {
		t.Errorf("item requirement should carry the capstone flag: %+v", req)
	}
}

func TestLoadGraphCustomCapstone(t *testing.T) {
	dir := testutil.WriteDataDir(t, loader.TasksFileName, fixtureTasks())
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Capstones.Kappa = "Side quest"

	snap, err := LoadGraph(context.Background(), cfg, loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Graph.Task("q-gas").IsCollectorRequirement {
		t.Error("q-gas is not a prerequisite of the configured capstone")
	}
	if !snap.Graph.Task("q-side").IsCollectorRequirement {
		t.Error("configured capstone should be flagged")
	}
	if snap.Capstones.Kappa != "Side quest" {
		t.Errorf("Capstones = %+v", snap.Capstones)
	}
}

func TestLoadGraphMissingData(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	if _, err := LoadGraph(context.Background(), cfg, loader.ParseOptions{}); err == nil {
		t.Error("expected error when the tasks file is missing")
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv(loader.DataDirEnvVar, "")

	cfg := config.DefaultConfig()
	cfg.DataDir = "/explicit"
	if got, _ := ResolveDataDir(cfg); got != "/explicit" {
		t.Errorf("explicit data dir ignored: %q", got)
	}

	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)
	t.Chdir(t.TempDir())
	got, err := ResolveDataDir(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, "qw"); got != want {
		t.Errorf("without ./data expected %q, got %q", want, got)
	}
}

func TestResolveStoreExplicitPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store = config.StoreConfig{Path: filepath.Join(t.TempDir(), "mine.sqlite")}

	src := ResolveStore(cfg)
	if src.Backend != config.BackendSQLite || src.Exists {
		t.Errorf("unexpected source %+v", src)
	}
}

func TestResolveStoreKeepsExistingOtherBackend(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	dir := filepath.Join(state, "qw")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "progress.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendSQLite

	src := ResolveStore(cfg)
	if src.Backend != config.BackendFile || !src.Exists {
		t.Errorf("existing progress.json should be kept, got %+v", src)
	}
}

func TestDiscoverStoresFreshestFirst(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "progress.json")
	dbPath := filepath.Join(dir, "progress.db")
	for _, p := range []string{jsonPath, dbPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dbPath, old, old); err != nil {
		t.Fatal(err)
	}

	got := DiscoverStores(dir)
	if len(got) != 2 || got[0].Path != jsonPath {
		t.Fatalf("expected progress.json first, got %v", got)
	}

	// equal mtimes: sqlite wins on priority
	if err := os.Chtimes(jsonPath, old, old); err != nil {
		t.Fatal(err)
	}
	got = DiscoverStores(dir)
	if got[0].Backend != config.BackendSQLite {
		t.Errorf("expected sqlite first on a tie, got %v", got)
	}
}

func TestOpenStoreBackends(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"file", "p.json", config.BackendFile},
		{"sqlite", "p.db", config.BackendSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Store = config.StoreConfig{Path: filepath.Join(t.TempDir(), tt.file)}

			store, src, err := OpenStore(cfg)
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer store.Close()
			if src.Backend != tt.want {
				t.Errorf("backend = %s, want %s", src.Backend, tt.want)
			}

			tr, err := progress.NewTracker(store, 1)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := tr.Toggle("q-gas"); err != nil {
				t.Fatalf("Toggle through %s store: %v", tt.name, err)
			}
		})
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store = config.StoreConfig{Backend: "redis", Path: filepath.Join(t.TempDir(), "x")}
	if _, _, err := OpenStore(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
