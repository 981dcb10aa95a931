package progress

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/debug"
)

// Store keys.
const (
	KeyCompleted       = "completed-tasks"
	KeyUserLevel       = "user-level"
	KeyKappaMode       = "kappa-mode"
	KeyLightkeeperMode = "lightkeeper-mode"
	ItemKeyPrefix      = "item/"
)

// ItemKey returns the store key for an item's count.
func ItemKey(itemID string) string {
	return ItemKeyPrefix + itemID
}

// ItemCount is how many of an item the user has put aside.
type ItemCount struct {
	Owned     int       `json:"owned"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is the full persisted progress.
type State struct {
	Completed       CompletedSet         `json:"completed"`
	Level           int                  `json:"level"`
	KappaMode       bool                 `json:"kappa_mode"`
	LightkeeperMode bool                 `json:"lightkeeper_mode"`
	Items           map[string]ItemCount `json:"items,omitempty"`
}

// DefaultState is the state of a fresh install.
func DefaultState(level int) State {
	if level < 1 {
		level = 1
	}
	return State{
		Completed: make(CompletedSet),
		Level:     level,
		Items:     make(map[string]ItemCount),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Completed = s.Completed.Clone()
	c.Items = make(map[string]ItemCount, len(s.Items))
	for k, v := range s.Items {
		c.Items[k] = v
	}
	return c
}

// Item returns the count for itemID, zero if none is stored.
func (s State) Item(itemID string) ItemCount {
	return s.Items[itemID]
}

// OwnedCounts returns owned counts keyed by item id.
func (s State) OwnedCounts() map[string]int {
	owned := make(map[string]int, len(s.Items))
	for id, c := range s.Items {
		owned[id] = c.Owned
	}
	return owned
}

// LoadState reads every key from store. Values that cannot be decoded are
// logged and replaced by their defaults; only store failures are returned.
func LoadState(store Store, defaultLevel int) (State, error) {
	st := DefaultState(defaultLevel)

	if raw, ok, err := store.Get(KeyCompleted); err != nil {
		return st, err
	} else if ok {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			debug.Log("discarding corrupt %s: %v", KeyCompleted, err)
		} else {
			st.Completed = make(CompletedSet, len(ids))
			st.Completed.Add(ids...)
		}
	}

	if raw, ok, err := store.Get(KeyUserLevel); err != nil {
		return st, err
	} else if ok {
		var level int
		if err := json.Unmarshal(raw, &level); err != nil || level < 1 {
			debug.Log("discarding corrupt %s %q: %v", KeyUserLevel, raw, err)
		} else {
			st.Level = level
		}
	}

	var err error
	if st.KappaMode, err = loadFlag(store, KeyKappaMode); err != nil {
		return st, err
	}
	if st.LightkeeperMode, err = loadFlag(store, KeyLightkeeperMode); err != nil {
		return st, err
	}

	keys, err := store.Keys()
	if err != nil {
		return st, err
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, ItemKeyPrefix) {
			continue
		}
		raw, ok, err := store.Get(key)
		if err != nil {
			return st, err
		}
		if !ok {
			continue
		}
		var c ItemCount
		if err := json.Unmarshal(raw, &c); err != nil || c.Owned < 0 {
			debug.Log("discarding corrupt %s: %v", key, err)
			continue
		}
		st.Items[strings.TrimPrefix(key, ItemKeyPrefix)] = c
	}

	return st, nil
}

func loadFlag(store Store, key string) (bool, error) {
	raw, ok, err := store.Get(key)
	if err != nil || !ok {
		return false, err
	}
	var on bool
	if err := json.Unmarshal(raw, &on); err != nil {
		debug.Log("discarding corrupt %s: %v", key, err)
		return false, nil
	}
	return on, nil
}

// encodeState returns the store values for every field of st except items.
func encodeState(st State) (map[string][]byte, error) {
	values := make(map[string][]byte, 4)
	fields := []struct {
		key string
		v   any
	}{
		{KeyCompleted, st.Completed},
		{KeyUserLevel, st.Level},
		{KeyKappaMode, st.KappaMode},
		{KeyLightkeeperMode, st.LightkeeperMode},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.key, err)
		}
		values[f.key] = b
	}
	return values, nil
}
