package progress

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/testutil"
)

// countingStore counts write calls and can be told to fail them.
type countingStore struct {
	Store
	writes int
	fail   bool
}

var errWrite = errors.New("disk full")

func (c *countingStore) Set(key string, value []byte) error {
	c.writes++
	if c.fail {
		return errWrite
	}
	return c.Store.Set(key, value)
}

func (c *countingStore) SetMany(values map[string][]byte) error {
	c.writes++
	if c.fail {
		return errWrite
	}
	return c.Store.SetMany(values)
}

func newTracker(t *testing.T, store Store) *Tracker {
	t.Helper()
	tr, err := NewTracker(store, 1)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func chainGraph() *analysis.Graph {
	return analysis.NewGraph([]model.Task{
		testutil.Task("A", "Prapor", 1),
		testutil.Task("B", "Prapor", 5, "A"),
		testutil.Task("C", "Prapor", 20, "B"),
		testutil.Task("D", "Prapor", 2),
	})
}

func TestTrackerToggle(t *testing.T) {
	store := NewMemStore()
	tr := newTracker(t, store)

	done, err := tr.Toggle("A")
	if err != nil || !done {
		t.Fatalf("Toggle(A) = %v, %v", done, err)
	}
	if !tr.Completed().Has("A") {
		t.Error("A should be complete")
	}

	// persisted
	st, _ := LoadState(store, 1)
	if !st.Completed.Has("A") {
		t.Error("toggle not written to the store")
	}

	done, err = tr.Toggle("A")
	if err != nil || done {
		t.Fatalf("second Toggle(A) = %v, %v", done, err)
	}
	if tr.Completed().Len() != 0 {
		t.Error("toggling twice should restore the empty set")
	}
}

func TestTrackerToggleDoesNotCascade(t *testing.T) {
	g := chainGraph()
	tr := newTracker(t, NewMemStore())
	if _, err := tr.ForceComplete(g, "C"); err != nil {
		t.Fatal(err)
	}

	if _, err := tr.Toggle("A"); err != nil {
		t.Fatal(err)
	}
	completed := tr.Completed()
	if completed.Has("A") {
		t.Error("A should be un-completed")
	}
	if !completed.Has("B") || !completed.Has("C") {
		t.Error("dependents must stay complete")
	}
	if !g.IsLocked("B", completed) {
		t.Error("B should report locked again")
	}
}

func TestTrackerForceComplete(t *testing.T) {
	g := chainGraph()
	store := &countingStore{Store: NewMemStore()}
	tr := newTracker(t, store)
	if _, err := tr.SetLevel(3); err != nil {
		t.Fatal(err)
	}
	store.writes = 0

	exp, err := tr.ForceComplete(g, "C")
	if err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}
	if store.writes != 1 {
		t.Errorf("expected a single write, got %d", store.writes)
	}
	if diff := cmp.Diff([]string{"C", "B", "A"}, exp.IDs); diff != "" {
		t.Errorf("expansion mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertSameIDs(t, []string{"A", "B", "C"}, tr.Completed().IDs())
	if tr.Level() != 20 {
		t.Errorf("level should rise to 20, got %d", tr.Level())
	}

	st, _ := LoadState(store, 1)
	if st.Level != 20 || st.Completed.Len() != 3 {
		t.Errorf("persisted state = level %d, %d completed", st.Level, st.Completed.Len())
	}
}

func TestTrackerForceCompleteKeepsHigherLevel(t *testing.T) {
	tr := newTracker(t, NewMemStore())
	if _, err := tr.SetLevel(40); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.ForceComplete(chainGraph(), "B"); err != nil {
		t.Fatal(err)
	}
	if tr.Level() != 40 {
		t.Errorf("level must never go down, got %d", tr.Level())
	}
}

func TestTrackerForceCompleteUnknown(t *testing.T) {
	store := &countingStore{Store: NewMemStore()}
	tr := newTracker(t, store)
	_, err := tr.ForceComplete(chainGraph(), "nope")
	if !errors.Is(err, analysis.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
	if store.writes != 0 {
		t.Error("nothing should be written for an unknown task")
	}
}

func TestTrackerFailedWriteKeepsState(t *testing.T) {
	store := &countingStore{Store: NewMemStore()}
	tr := newTracker(t, store)
	store.fail = true

	if _, err := tr.Toggle("A"); !errors.Is(err, errWrite) {
		t.Errorf("Toggle error = %v", err)
	}
	if _, err := tr.ForceComplete(chainGraph(), "C"); !errors.Is(err, errWrite) {
		t.Errorf("ForceComplete error = %v", err)
	}
	if _, err := tr.SetLevel(10); !errors.Is(err, errWrite) {
		t.Errorf("SetLevel error = %v", err)
	}
	if _, err := tr.AdjustItem("gas", 1); !errors.Is(err, errWrite) {
		t.Errorf("AdjustItem error = %v", err)
	}

	st := tr.State()
	if st.Completed.Len() != 0 || st.Level != 1 || len(st.Items) != 0 {
		t.Errorf("state changed despite failed writes: %+v", st)
	}
}

func TestTrackerSetLevel(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{12, 12},
		{1, 1},
		{0, 1},
		{-7, 1},
	}
	for _, tt := range tests {
		tr := newTracker(t, NewMemStore())
		got, err := tr.SetLevel(tt.in)
		if err != nil || got != tt.want || tr.Level() != tt.want {
			t.Errorf("SetLevel(%d) = %d, %v; Level() = %d", tt.in, got, err, tr.Level())
		}
	}
}

func TestTrackerSetMode(t *testing.T) {
	store := NewMemStore()
	tr := newTracker(t, store)

	if err := tr.SetMode(analysis.ModeKappa, true); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetMode(analysis.ModeLightkeeper, true); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetMode(analysis.ModeLightkeeper, false); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetMode("prestige", true); err == nil {
		t.Error("expected error for unknown mode")
	}

	st, _ := LoadState(store, 1)
	if !st.KappaMode || st.LightkeeperMode {
		t.Errorf("persisted modes = %v/%v", st.KappaMode, st.LightkeeperMode)
	}
}

func TestTrackerItems(t *testing.T) {
	store := NewMemStore()
	tr := newTracker(t, store)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	c, err := tr.AdjustItem("gas", 3)
	if err != nil || c.Owned != 3 {
		t.Fatalf("AdjustItem +3 = %+v, %v", c, err)
	}
	c, _ = tr.AdjustItem("gas", -1)
	if c.Owned != 2 {
		t.Errorf("owned = %d, want 2", c.Owned)
	}
	c, _ = tr.AdjustItem("gas", -10)
	if c.Owned != 0 {
		t.Errorf("owned must not go below zero, got %d", c.Owned)
	}

	c, err = tr.SetItemNotes("gas", "in the stash")
	if err != nil || c.Notes != "in the stash" || c.Owned != 0 {
		t.Errorf("SetItemNotes = %+v, %v", c, err)
	}

	st, _ := LoadState(store, 1)
	got := st.Item("gas")
	if got.Notes != "in the stash" || !got.UpdatedAt.Equal(fixed) {
		t.Errorf("persisted item = %+v", got)
	}
}

func TestTrackerReset(t *testing.T) {
	store := NewMemStore()
	tr, err := NewTracker(store, 5)
	if err != nil {
		t.Fatal(err)
	}
	tr.Toggle("A")
	tr.SetLevel(30)
	tr.AdjustItem("gas", 2)

	if err := tr.Reset(); err != nil {
		t.Fatal(err)
	}
	st := tr.State()
	if st.Completed.Len() != 0 || st.Level != 5 || len(st.Items) != 0 {
		t.Errorf("reset state = %+v", st)
	}
	if keys, _ := store.Keys(); len(keys) != 0 {
		t.Errorf("store not cleared: %v", keys)
	}
}

func TestTrackerReloadSeesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	storeA, err := OpenFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	storeB, err := OpenFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	a := newTracker(t, storeA)
	b := newTracker(t, storeB)

	if _, err := a.Toggle("X"); err != nil {
		t.Fatal(err)
	}
	if b.Completed().Has("X") {
		t.Fatal("b should not see the write before Reload")
	}
	if err := b.Reload(); err != nil {
		t.Fatal(err)
	}
	if !b.Completed().Has("X") {
		t.Error("Reload should pick up the other writer")
	}
}

func TestTrackerSnapshotsAreCopies(t *testing.T) {
	tr := newTracker(t, NewMemStore())
	c := tr.Completed()
	c.Add("sneaky")
	if tr.Completed().Has("sneaky") {
		t.Error("Completed() must return a copy")
	}
}

func TestTrackerSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	tr := newTracker(t, store)
	if _, err := tr.ForceComplete(chainGraph(), "B"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	st, err := LoadState(reopened, 1)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertSameIDs(t, []string{"A", "B"}, st.Completed.IDs())
	if st.Level != 5 {
		t.Errorf("level = %d, want 5", st.Level)
	}
}
