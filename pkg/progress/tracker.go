package progress

import (
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/debug"
)

// Tracker owns the in-memory progress state and writes every change to its
// Store before returning. A failed write leaves the state unchanged.
type Tracker struct {
	mu           sync.Mutex
	store        Store
	defaultLevel int
	state        State
	now          func() time.Time
}

// NewTracker loads the current state from store.
func NewTracker(store Store, defaultLevel int) (*Tracker, error) {
	st, err := LoadState(store, defaultLevel)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	return &Tracker{
		store:        store,
		defaultLevel: defaultLevel,
		state:        st,
		now:          time.Now,
	}, nil
}

// Store returns the backing store.
func (t *Tracker) Store() Store {
	return t.store
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Completed returns a copy of the completed set.
func (t *Tracker) Completed() CompletedSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Completed.Clone()
}

// Level returns the player level.
func (t *Tracker) Level() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Level
}

// Toggle flips id's completion and returns the new state. Nothing else
// changes: dependents stay complete when a prerequisite is un-completed.
func (t *Tracker) Toggle(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.state.Completed.Clone()
	done := next.Toggle(id)
	if err := t.setJSON(KeyCompleted, next); err != nil {
		return !done, err
	}
	t.state.Completed = next
	debug.Log("toggle %s -> %v", id, done)
	return done, nil
}

// ForceComplete marks id and all of its transitive prerequisites complete
// and raises the level to id's minimum, in one write.
func (t *Tracker) ForceComplete(g *analysis.Graph, id string) (analysis.Expansion, error) {
	exp, err := g.ForceCompletion(id)
	if err != nil {
		return exp, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.state.Clone()
	next.Level = exp.Apply(next.Completed, next.Level)

	values, err := encodeState(next)
	if err != nil {
		return exp, err
	}
	delete(values, KeyKappaMode)
	delete(values, KeyLightkeeperMode)
	if err := t.store.SetMany(values); err != nil {
		return exp, fmt.Errorf("saving progress: %w", err)
	}
	t.state = next
	debug.Log("force-complete %s: %d ids, level %d", id, len(exp.IDs), next.Level)
	return exp, nil
}

// SetLevel sets the player level, clamped to at least 1, and returns the
// stored value.
func (t *Tracker) SetLevel(level int) (int, error) {
	if level < 1 {
		level = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.setJSON(KeyUserLevel, level); err != nil {
		return t.state.Level, err
	}
	t.state.Level = level
	return level, nil
}

// SetMode turns a capstone filter on or off.
func (t *Tracker) SetMode(mode analysis.CapstoneMode, on bool) error {
	var key string
	switch mode {
	case analysis.ModeKappa:
		key = KeyKappaMode
	case analysis.ModeLightkeeper:
		key = KeyLightkeeperMode
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.setJSON(key, on); err != nil {
		return err
	}
	if mode == analysis.ModeKappa {
		t.state.KappaMode = on
	} else {
		t.state.LightkeeperMode = on
	}
	return nil
}

// AdjustItem adds delta to the owned count of itemID. The count never
// drops below zero.
func (t *Tracker) AdjustItem(itemID string, delta int) (ItemCount, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.state.Items[itemID]
	c.Owned += delta
	if c.Owned < 0 {
		c.Owned = 0
	}
	return c, t.putItem(itemID, c)
}

// SetItemNotes replaces the notes on itemID.
func (t *Tracker) SetItemNotes(itemID, notes string) (ItemCount, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.state.Items[itemID]
	c.Notes = notes
	return c, t.putItem(itemID, c)
}

// putItem must be called with t.mu held.
func (t *Tracker) putItem(itemID string, c ItemCount) error {
	c.UpdatedAt = t.now().UTC()
	if err := t.setJSON(ItemKey(itemID), c); err != nil {
		return err
	}
	t.state.Items[itemID] = c
	return nil
}

// Reset deletes every stored key and returns to the default state.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys, err := t.store.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := t.store.Delete(key); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	t.state = DefaultState(t.defaultLevel)
	return nil
}

// Reload re-reads the store, picking up writes from other processes.
func (t *Tracker) Reload() error {
	if r, ok := t.store.(Refresher); ok {
		if err := r.Refresh(); err != nil {
			return err
		}
	}
	st, err := LoadState(t.store, t.defaultLevel)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.state = st
	t.mu.Unlock()
	return nil
}

// setJSON must be called with t.mu held.
func (t *Tracker) setJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := t.store.Set(key, b); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
