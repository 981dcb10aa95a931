package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// DataDirEnvVar is the name of the environment variable for a custom data directory
const DataDirEnvVar = "QW_DATA_DIR"

// File names of the static dataset inside the data directory.
const (
	TasksFileName   = "tarkov-tasks.json"
	HideoutFileName = "hideout.json"
	TradersFileName = "traders.json"
)

// GetDataDir returns the data directory path, respecting QW_DATA_DIR.
// Otherwise falls back to data/ in the given repoPath (or cwd if empty).
func GetDataDir(repoPath string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	return filepath.Join(repoPath, "data"), nil
}

// ParseOptions configures the behavior of the Parse* functions.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed records).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// TaskFilter optionally filters parsed tasks. Return true to include.
	TaskFilter func(*model.Task) bool
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// ParseTasks decodes a task file ({"tasks": [...]}). Records that fail to
// decode or validate are skipped with a warning.
func ParseTasks(r io.Reader, opts ParseOptions) ([]model.Task, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	var file struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}

	warn := opts.warn()
	tasks := make([]model.Task, 0, len(file.Tasks))
	for i, raw := range file.Tasks {
		var task model.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			warn(fmt.Sprintf("skipping malformed task #%d: %v", i, err))
			continue
		}
		if task.Type == "" {
			task.Type = model.TypeTask
		}
		if err := task.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid task #%d: %v", i, err))
			continue
		}
		if opts.TaskFilter != nil && !opts.TaskFilter(&task) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ParseHideout decodes the hideout station list.
func ParseHideout(r io.Reader, opts ParseOptions) ([]model.HideoutStation, error) {
	return parseList[model.HideoutStation](r, "station", opts.warn(), func(s model.HideoutStation) error {
		if s.NormalizedName == "" {
			return errors.New("missing normalizedName")
		}
		return nil
	})
}

// ParseTraders decodes the trader list.
func ParseTraders(r io.Reader, opts ParseOptions) ([]model.TraderRecord, error) {
	return parseList[model.TraderRecord](r, "trader", opts.warn(), func(t model.TraderRecord) error {
		if t.NormalizedName == "" {
			return errors.New("missing normalizedName")
		}
		return nil
	})
}

func parseList[T any](r io.Reader, kind string, warn func(string), check func(T) error) ([]T, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse %s list: %w", kind, err)
	}

	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			warn(fmt.Sprintf("skipping malformed %s #%d: %v", kind, i, err))
			continue
		}
		if err := check(v); err != nil {
			warn(fmt.Sprintf("skipping invalid %s #%d: %v", kind, i, err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return stripBOM(data), nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

// LoadTasksFile reads the quest dataset. A missing file is an error.
func LoadTasksFile(path string, opts ParseOptions) ([]model.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no task data found at %s", path)
		}
		return nil, fmt.Errorf("failed to open task file: %w", err)
	}
	defer file.Close()

	return ParseTasks(file, opts)
}

// LoadHideoutFile reads the hideout dataset. A missing file yields no stations.
func LoadHideoutFile(path string, opts ParseOptions) ([]model.HideoutStation, error) {
	file, err := openOptional(path)
	if file == nil || err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseHideout(file, opts)
}

// LoadTradersFile reads the trader dataset. A missing file yields no traders.
func LoadTradersFile(path string, opts ParseOptions) ([]model.TraderRecord, error) {
	file, err := openOptional(path)
	if file == nil || err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseTraders(file, opts)
}

func openOptional(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			debug.Log("optional data file %s not found, skipping", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	return file, nil
}

// Dataset is the raw static data of one session.
type Dataset struct {
	Tasks    []model.Task
	Stations []model.HideoutStation
	Traders  []model.TraderRecord
}

// LoadAll reads the three data files of dir concurrently.
func LoadAll(ctx context.Context, dir string, opts ParseOptions) (*Dataset, error) {
	defer metrics.Timer(metrics.DataLoad)()

	var ds Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tasks, err := LoadTasksFile(filepath.Join(dir, TasksFileName), opts)
		if err != nil {
			return err
		}
		ds.Tasks = tasks
		return ctx.Err()
	})
	g.Go(func() error {
		stations, err := LoadHideoutFile(filepath.Join(dir, HideoutFileName), opts)
		if err != nil {
			return fmt.Errorf("load hideout: %w", err)
		}
		ds.Stations = stations
		return ctx.Err()
	})
	g.Go(func() error {
		traders, err := LoadTradersFile(filepath.Join(dir, TradersFileName), opts)
		if err != nil {
			return fmt.Errorf("load traders: %w", err)
		}
		ds.Traders = traders
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	debug.Log("loaded %d tasks, %d stations, %d traders from %s",
		len(ds.Tasks), len(ds.Stations), len(ds.Traders), dir)
	return &ds, nil
}
