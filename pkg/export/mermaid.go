// Package export renders progress and task graphs as Markdown reports and
// Mermaid diagrams.
package export

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/vanderheijden86/questwork/pkg/analysis"
)

// MermaidConfig configures the Mermaid graph generation.
type MermaidConfig struct {
	ShowNoDependenciesNode bool // If true, adds a "No Prerequisites" node when no edges exist
	ShowTrader             bool // append the trader name to each label
}

// StateFunc returns the lock state of a task id.
type StateFunc func(id string) analysis.LockState

// GenerateMermaid renders g as a top-down flowchart. Edges point from a
// prerequisite to the task it unlocks. Node classes follow state; a nil
// state leaves nodes unstyled.
func GenerateMermaid(g *analysis.Graph, state StateFunc, config MermaidConfig) string {
	var sb strings.Builder

	sb.WriteString("graph TD\n")

	sb.WriteString("    classDef done fill:#6272A4,stroke:#333,color:#fff\n")
	sb.WriteString("    classDef available fill:#50FA7B,stroke:#333,color:#000\n")
	sb.WriteString("    classDef locked fill:#FF5555,stroke:#333,color:#000\n")
	sb.WriteString("    classDef gated fill:#F1FA8C,stroke:#333,color:#000\n")
	sb.WriteString("\n")

	ids := g.IDs()
	safe := safeIDs(ids)

	for _, id := range ids {
		t := g.Task(id)
		label := sanitizeMermaidText(t.Name)
		if config.ShowTrader && t.Trader.Name != "" {
			label += "<br/>" + sanitizeMermaidText(t.Trader.Name)
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", safe[id], label)
		if state == nil {
			continue
		}
		if class := stateClass(state(id)); class != "" {
			fmt.Fprintf(&sb, "    class %s %s\n", safe[id], class)
		}
	}

	sb.WriteString("\n")

	hasLinks := false
	for _, id := range ids {
		for _, pre := range g.Prerequisites(id) {
			fmt.Fprintf(&sb, "    %s --> %s\n", safe[pre], safe[id])
			hasLinks = true
		}
	}

	if config.ShowNoDependenciesNode && !hasLinks && len(ids) > 0 {
		sb.WriteString("    NoLinks[\"No Prerequisites\"]\n")
	}

	return sb.String()
}

func stateClass(st analysis.LockState) string {
	switch {
	case st.Completed:
		return "done"
	case st.Locked:
		return "locked"
	case st.LevelLocked:
		return "gated"
	case st.Available:
		return "available"
	}
	return ""
}

// safeIDs maps every id to a unique Mermaid node id. Ids that sanitize to
// the same string get a stable hash suffix.
func safeIDs(ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		base := sanitizeMermaidID(id)
		s := base
		if used[s] {
			h := fnv.New32a()
			_, _ = h.Write([]byte(id))
			s = fmt.Sprintf("%s_%x", base, h.Sum32())
		}
		used[s] = true
		out[id] = s
	}
	return out
}

// sanitizeMermaidID ensures an ID is valid for Mermaid diagrams.
// Mermaid node IDs must be alphanumeric with hyphens/underscores.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	result := sb.String()
	if result == "" {
		return "node"
	}
	// "end" closes a subgraph in Mermaid
	if strings.EqualFold(result, "end") {
		return "n_" + result
	}
	return result
}

// sanitizeMermaidText prepares text for use in Mermaid node labels.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(text)

	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(result)

	runes := []rune(result)
	if len(runes) > 40 {
		result = string(runes[:37]) + "..."
	}

	return result
}
