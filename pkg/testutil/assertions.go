package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// AssertTaskCount verifies the expected number of tasks.
func AssertTaskCount(t *testing.T, tasks []model.Task, expected int) {
	t.Helper()
	if len(tasks) != expected {
		t.Errorf("expected %d tasks, got %d", expected, len(tasks))
	}
}

// AssertNoDuplicateIDs verifies all task IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, tasks []model.Task) {
	t.Helper()
	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

// AssertAllValid verifies all tasks pass validation.
func AssertAllValid(t *testing.T, tasks []model.Task) {
	t.Helper()
	for i, task := range tasks {
		if err := task.Validate(); err != nil {
			t.Errorf("task %d (%s) invalid: %v", i, task.ID, err)
		}
	}
}

// AssertRequires verifies that fromID lists toID as a prerequisite.
func AssertRequires(t *testing.T, tasks []model.Task, fromID, toID string) {
	t.Helper()
	for _, task := range tasks {
		if task.ID != fromID {
			continue
		}
		for _, id := range task.RequirementIDs() {
			if id == toID {
				return
			}
		}
		t.Errorf("expected %s to require %s", fromID, toID)
		return
	}
	t.Errorf("task %s not found", fromID)
}

// AssertSameIDs compares two id lists ignoring order.
func AssertSameIDs(t *testing.T, want, got []string) {
	t.Helper()
	w := append([]string(nil), want...)
	g := append([]string(nil), got...)
	sort.Strings(w)
	sort.Strings(g)
	if diff := cmp.Diff(w, g); diff != "" {
		t.Errorf("id set mismatch (-want +got):\n%s", diff)
	}
}

// AssertCompleted verifies completed holds exactly ids.
func AssertCompleted(t *testing.T, completed model.CompletedSet, ids ...string) {
	t.Helper()
	AssertSameIDs(t, ids, completed.IDs())
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if diff := cmp.Diff(strings.Split(string(expected), "\n"), strings.Split(actual, "\n")); diff != "" {
		g.t.Errorf("golden file %s mismatch (-want +got):\n%s", path, diff)
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual any) {
	g.t.Helper()
	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}
	g.Assert(string(data))
}

// WriteDataDir writes a task file into a fresh temp dir and returns the dir.
func WriteDataDir(t *testing.T, tasksFileName string, tasks []model.Task) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, tasksFileName), []byte(ToJSON(tasks)), 0o644); err != nil {
		t.Fatalf("failed to write task file: %v", err)
	}
	return dir
}

// FindTask returns the task with id, or nil.
func FindTask(tasks []model.Task, id string) *model.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// GetIDs extracts task IDs in order.
func GetIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
