// Package search resolves what a user typed on the command line to a task
// or item: an exact id, an exact name, or the best fuzzy match on names.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// Kind says what a result refers to.
type Kind string

const (
	KindTask Kind = "task"
	KindItem Kind = "item"
)

// ErrNoMatch is returned when nothing matches the query.
var ErrNoMatch = errors.New("no match")

// Result is one search hit.
type Result struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"` // trader for tasks, short name for items
	Score  int    `json:"score"`
	Exact  bool   `json:"exact"`
}

// AmbiguousError is returned by Resolve when several names match equally
// well.
type AmbiguousError struct {
	Query      string
	Candidates []Result
}

func (e *AmbiguousError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.ID))
	}
	return fmt.Sprintf("%q is ambiguous: %s", e.Query, strings.Join(names, ", "))
}

type entry struct {
	kind   Kind
	id     string
	name   string
	detail string
	text   string // matched against
}

// Index is a searchable list of tasks and items.
type Index struct {
	entries []entry
	byID    map[string][]int
}

// entrySource adapts a slice of entries to fuzzy.Source.
type entrySource []entry

func (s entrySource) String(i int) string { return s[i].text }
func (s entrySource) Len() int            { return len(s) }

// NewIndex indexes tasks and items. Either may be nil.
func NewIndex(tasks []model.Task, items []model.ItemDetail) *Index {
	ix := &Index{byID: make(map[string][]int)}
	for _, t := range tasks {
		ix.add(entry{kind: KindTask, id: t.ID, name: t.Name, detail: t.Trader.Name, text: t.Name})
	}
	for _, it := range items {
		text := it.Name
		if it.ShortName != "" && it.ShortName != it.Name {
			text += " " + it.ShortName
		}
		ix.add(entry{kind: KindItem, id: it.ID, name: it.Name, detail: it.ShortName, text: text})
	}
	return ix
}

func (ix *Index) add(e entry) {
	ix.byID[e.id] = append(ix.byID[e.id], len(ix.entries))
	ix.entries = append(ix.entries, e)
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Find returns up to limit results of the given kind (any kind when kind is
// empty), best first. Exact id and name matches come before fuzzy ones.
// A limit <= 0 means no limit.
func (ix *Index) Find(query string, kind Kind, limit int) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var out []Result
	seen := make(map[int]bool)

	for _, i := range ix.byID[query] {
		if e := ix.entries[i]; kind == "" || e.kind == kind {
			seen[i] = true
			out = append(out, toResult(e, 0, true))
		}
	}
	for i, e := range ix.entries {
		if seen[i] || (kind != "" && e.kind != kind) {
			continue
		}
		if strings.EqualFold(e.name, query) {
			seen[i] = true
			out = append(out, toResult(e, 0, true))
		}
	}

	for _, m := range fuzzy.FindFrom(query, entrySource(ix.entries)) {
		e := ix.entries[m.Index]
		if seen[m.Index] || (kind != "" && e.kind != kind) {
			continue
		}
		seen[m.Index] = true
		out = append(out, toResult(e, m.Score, false))
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Resolve returns the single entry of kind that query refers to. An exact
// id wins, then an exact (case-insensitive) name, then the best fuzzy match
// if no other match scores the same.
func (ix *Index) Resolve(query string, kind Kind) (Result, error) {
	results := ix.Find(query, kind, 0)
	if len(results) == 0 {
		return Result{}, fmt.Errorf("%s %q: %w", kindLabel(kind), query, ErrNoMatch)
	}

	best := results[0]
	if best.Exact {
		// several tasks may share a name (prestige copies); the id decides
		var exact []Result
		for _, r := range results {
			if r.Exact {
				exact = append(exact, r)
			}
		}
		if len(exact) > 1 && exact[0].ID != query {
			return Result{}, &AmbiguousError{Query: query, Candidates: exact}
		}
		return best, nil
	}

	var tied []Result
	for _, r := range results {
		if r.Score == best.Score {
			tied = append(tied, r)
		}
	}
	if len(tied) > 1 {
		sort.SliceStable(tied, func(i, j int) bool { return tied[i].Name < tied[j].Name })
		return Result{}, &AmbiguousError{Query: query, Candidates: tied}
	}
	return best, nil
}

func toResult(e entry, score int, exact bool) Result {
	return Result{Kind: e.kind, ID: e.id, Name: e.name, Detail: e.detail, Score: score, Exact: exact}
}

func kindLabel(k Kind) string {
	if k == "" {
		return "task or item"
	}
	return string(k)
}
