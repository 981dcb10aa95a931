package export

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/model"
)

var slugNonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Report is everything GenerateMarkdown renders.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Level       int
	Modes       string // "" when no capstone mode is on

	Overall analysis.Completion
	Traders []analysis.TraderCompletion

	// Graph is the task graph to list per trader. State colors it.
	Graph *analysis.Graph
	State StateFunc

	// Items are the item rows; only those with a shortfall are listed.
	Items []analysis.ItemStatus

	// Diagram embeds a Mermaid flowchart of Graph.
	Diagram bool
}

// GenerateMarkdown creates a markdown progress report.
func GenerateMarkdown(r Report) string {
	var sb strings.Builder

	title := r.Title
	if title == "" {
		title = "Quest Progress"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "*Generated: %s*\n\n", r.GeneratedAt.Format(time.RFC1123))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&sb, "| **Level** | %d |\n", r.Level)
	if r.Modes != "" {
		fmt.Fprintf(&sb, "| **Mode** | %s |\n", escapeCell(r.Modes))
	}
	fmt.Fprintf(&sb, "| **Completed** | %d / %d (%d%%) |\n\n", r.Overall.Completed, r.Overall.Total, r.Overall.Percent)

	if len(r.Traders) > 0 {
		sb.WriteString("| Trader | Done | Progress |\n|--------|------|----------|\n")
		for _, tc := range r.Traders {
			fmt.Fprintf(&sb, "| %s | %d / %d | %s %d%% |\n", escapeCell(tc.Trader),
				tc.Completed, tc.Total, barChart(tc.Percent), tc.Percent)
		}
		sb.WriteString("\n")
	}

	if r.Diagram && r.Graph != nil && r.Graph.Len() > 0 {
		sb.WriteString("## Dependency Graph\n\n```mermaid\n")
		sb.WriteString(GenerateMermaid(r.Graph, r.State, MermaidConfig{ShowNoDependenciesNode: true}))
		sb.WriteString("```\n\n")
	}

	if r.Graph != nil {
		writeTaskSections(&sb, r.Graph, r.State)
	}

	var short []analysis.ItemStatus
	for _, s := range r.Items {
		if s.Shortfall() > 0 {
			short = append(short, s)
		}
	}
	if len(short) > 0 {
		sb.WriteString("## Items Still Needed\n\n")
		sb.WriteString("| Item | Needed | Have | Find |\n|------|--------|------|------|\n")
		for _, s := range short {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d |\n", escapeCell(s.Item.Name), s.RemainingNeeded, s.Owned, s.Shortfall())
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeTaskSections(sb *strings.Builder, g *analysis.Graph, state StateFunc) {
	byTrader := make(map[string][]model.Task)
	var traders []string
	for _, t := range g.Tasks() {
		if _, ok := byTrader[t.Trader.Name]; !ok {
			traders = append(traders, t.Trader.Name)
		}
		byTrader[t.Trader.Name] = append(byTrader[t.Trader.Name], t)
	}

	counts := make(map[string]int, len(traders))
	for _, trader := range traders {
		name := trader
		if name == "" {
			name = "Unassigned"
		}
		fmt.Fprintf(sb, "<a id=\"%s\"></a>\n\n", uniqueSlug(createSlug(name), counts))
		fmt.Fprintf(sb, "## %s\n\n", name)
		for _, t := range byTrader[trader] {
			var st analysis.LockState
			if state != nil {
				st = state(t.ID)
			}
			fmt.Fprintf(sb, "- %s %s *(lvl %d)*\n", stateEmoji(st), escapeInline(t.Name), t.MinPlayerLevel)
		}
		sb.WriteString("\n")
	}
}

func stateEmoji(st analysis.LockState) string {
	switch {
	case st.Completed:
		return "✅"
	case st.Locked:
		return "🔒"
	case st.LevelLocked:
		return "⏳"
	case st.Available:
		return "🟢"
	}
	return "⚪"
}

func uniqueSlug(base string, counts map[string]int) string {
	if base == "" {
		base = "section"
	}
	n := counts[base]
	counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

func createSlug(text string) string {
	slug := strings.ToLower(text)
	slug = slugNonAlphanumericRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "|", "\\|")
}

func escapeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`").Replace(s)
}

// barChart draws a ten-cell bar for percent.
func barChart(percent int) string {
	filled := min(10, max(0, percent/10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// SaveMarkdownToFile writes the report to filename.
func SaveMarkdownToFile(r Report, filename string) error {
	if err := os.WriteFile(filename, []byte(GenerateMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
