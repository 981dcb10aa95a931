package model

import (
	"sort"

	json "github.com/goccy/go-json"
)

// CompletedSet is the set of node ids the user has marked complete. It is
// never validated against the node set; stale ids are kept as they are.
type CompletedSet map[string]struct{}

// NewCompletedSet returns a set holding ids.
func NewCompletedSet(ids ...string) CompletedSet {
	s := make(CompletedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is complete. A nil set holds nothing.
func (s CompletedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks ids complete.
func (s CompletedSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Remove clears id.
func (s CompletedSet) Remove(id string) {
	delete(s, id)
}

// Toggle flips membership of id and returns the new state.
func (s CompletedSet) Toggle(id string) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Len returns the number of completed ids.
func (s CompletedSet) Len() int { return len(s) }

// IDs returns the members sorted.
func (s CompletedSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s CompletedSet) Clone() CompletedSet {
	c := make(CompletedSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// MarshalJSON encodes the set as a sorted array of ids.
func (s CompletedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes an array of ids.
func (s *CompletedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewCompletedSet(ids...)
	return nil
}
