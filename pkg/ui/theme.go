// Package ui renders qw output for the terminal: the color theme, width
// helpers and the quest tree.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/vanderheijden86/questwork/pkg/config"
)

// Palette, tuned for light and dark terminals.
var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Theme holds the styles of one output stream.
type Theme struct {
	Renderer *lipgloss.Renderer
	Color    bool

	Title     lipgloss.Style
	Header    lipgloss.Style
	Muted     lipgloss.Style
	Info      lipgloss.Style
	Done      lipgloss.Style // completed task
	Available lipgloss.Style // can be done now
	Locked    lipgloss.Style // prerequisite open
	Gated     lipgloss.Style // level too low
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Bar       lipgloss.Style
}

// ColorEnabled decides whether output to w is colored. mode is one of the
// config.Color* values; auto colors terminals only and honors NO_COLOR.
func ColorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewTheme builds the theme for w.
func NewTheme(w io.Writer, mode string) *Theme {
	r := lipgloss.NewRenderer(w)
	color := ColorEnabled(w, mode)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	} else if mode == config.ColorAlways && !isTerminal(w) {
		// piped output would otherwise be detected as colorless
		r.SetColorProfile(termenv.ANSI256)
		r.SetHasDarkBackground(true)
	}

	return &Theme{
		Renderer:  r,
		Color:     color,
		Title:     r.NewStyle().Foreground(ColorPrimary).Bold(true),
		Header:    r.NewStyle().Foreground(ColorText).Bold(true),
		Muted:     r.NewStyle().Foreground(ColorMuted),
		Info:      r.NewStyle().Foreground(ColorInfo),
		Done:      r.NewStyle().Foreground(ColorMuted).Strikethrough(color),
		Available: r.NewStyle().Foreground(ColorSuccess).Bold(true),
		Locked:    r.NewStyle().Foreground(ColorDanger),
		Gated:     r.NewStyle().Foreground(ColorWarning),
		Warning:   r.NewStyle().Foreground(ColorWarning).Bold(true),
		Error:     r.NewStyle().Foreground(ColorDanger).Bold(true),
		Bar:       r.NewStyle().Foreground(ColorSuccess),
	}
}
