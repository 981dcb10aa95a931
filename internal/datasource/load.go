package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/loader"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// Snapshot is everything derived from the static dataset for one run.
type Snapshot struct {
	DataDir   string
	Tasks     []model.Task // merged nodes with capstone flags applied
	Graph     *analysis.Graph
	Items     model.ItemsData
	Capstones analysis.Capstones
}

// ResolveDataDir returns the dataset directory: the configured one, then
// ./data if it holds the tasks file, then the XDG data directory.
func ResolveDataDir(cfg config.Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}

	local, err := loader.GetDataDir("")
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(local, loader.TasksFileName)); err == nil {
		return local, nil
	}

	if dir := config.DataDir(); dir != "" {
		return dir, nil
	}
	return local, nil
}

// CapstonesFrom converts the configured capstone names.
func CapstonesFrom(cfg config.Config) analysis.Capstones {
	return analysis.Capstones{
		Kappa:       cfg.Capstones.Kappa,
		Lightkeeper: cfg.Capstones.Lightkeeper,
	}
}

// LoadGraph loads the dataset, merges quests, trader levels and hideout
// levels into one node set, propagates capstone flags and builds the graph
// and the item index.
func LoadGraph(ctx context.Context, cfg config.Config, opts loader.ParseOptions) (*Snapshot, error) {
	dir, err := ResolveDataDir(cfg)
	if err != nil {
		return nil, err
	}

	ds, err := loader.LoadAll(ctx, dir, opts)
	if err != nil {
		return nil, fmt.Errorf("loading data from %s: %w", dir, err)
	}

	capstones := CapstonesFrom(cfg)
	nodes := analysis.MarkCapstoneRequirements(loader.BuildNodes(ds), capstones)

	return &Snapshot{
		DataDir:   dir,
		Tasks:     nodes,
		Graph:     analysis.NewGraph(nodes),
		Items:     loader.BuildItemIndex(nodes, ds.Stations),
		Capstones: capstones,
	}, nil
}
