// Package datasource wires configuration to the concrete data qw works on:
// the progress store backend and the static game dataset.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/progress"
)

// Priority values for store backends (higher wins on equal mtime).
const (
	PrioritySQLite = 100
	PriorityFile   = 50
)

// StoreSource describes one candidate progress store.
type StoreSource struct {
	Backend  string    `json:"backend"`
	Path     string    `json:"path"`
	Priority int       `json:"priority"`
	ModTime  time.Time `json:"mod_time"`
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size"`
}

// String returns a human-readable description of the source.
func (s StoreSource) String() string {
	if !s.Exists {
		return fmt.Sprintf("%s (%s, new)", s.Path, s.Backend)
	}
	return fmt.Sprintf("%s (%s, mod=%s, %d bytes)", s.Path, s.Backend, s.ModTime.Format(time.RFC3339), s.Size)
}

func statSource(backend, path string) StoreSource {
	s := StoreSource{Backend: backend, Path: path, Priority: PriorityFile}
	if backend == config.BackendSQLite {
		s.Priority = PrioritySQLite
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		s.Exists = true
		s.ModTime = info.ModTime()
		s.Size = info.Size()
	}
	return s
}

// DiscoverStores lists the default store files in dir that exist, freshest
// first.
func DiscoverStores(dir string) []StoreSource {
	var sources []StoreSource
	for _, c := range []struct{ backend, name string }{
		{config.BackendFile, "progress.json"},
		{config.BackendSQLite, "progress.db"},
	} {
		if s := statSource(c.backend, filepath.Join(dir, c.name)); s.Exists {
			sources = append(sources, s)
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources
}

// ResolveStore picks the store for cfg. An explicit path (config or
// QW_STORE) is used as is. Otherwise the configured backend's default file
// is used, unless only the other backend's default file exists, in which
// case that one is kept so switching defaults never hides progress.
func ResolveStore(cfg config.Config) StoreSource {
	if cfg.Store.Path != "" {
		backend := cfg.Store.Backend
		if backend == "" {
			backend = config.BackendForPath(cfg.Store.Path)
		}
		return statSource(backend, cfg.Store.Path)
	}

	backend := cfg.Store.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	want := statSource(backend, cfg.StorePath())
	if want.Exists {
		return want
	}

	found := DiscoverStores(filepath.Dir(want.Path))
	if len(found) > 0 {
		debug.Log("no %s store at %s, using existing %s", backend, want.Path, found[0])
		return found[0]
	}
	return want
}

// OpenStore opens the progress store selected by cfg.
func OpenStore(cfg config.Config) (progress.Store, StoreSource, error) {
	src := ResolveStore(cfg)
	debug.Log("progress store: %s", src)

	switch src.Backend {
	case config.BackendSQLite:
		s, err := progress.OpenSQLiteStore(src.Path)
		if err != nil {
			return nil, src, fmt.Errorf("failed to open SQLite store %s: %w", src.Path, err)
		}
		return s, src, nil
	case config.BackendFile:
		s, err := progress.OpenFileStore(src.Path)
		if err != nil {
			return nil, src, fmt.Errorf("failed to open progress file %s: %w", src.Path, err)
		}
		return s, src, nil
	default:
		return nil, src, fmt.Errorf("unknown store backend: %s", src.Backend)
	}
}
