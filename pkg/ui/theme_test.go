package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/analysis"
	"github.com/vanderheijden86/questwork/pkg/config"
)

func TestColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer

	tests := []struct {
		mode string
		want bool
	}{
		{config.ColorAlways, true},
		{config.ColorNever, false},
		{config.ColorAuto, false}, // a buffer is not a terminal
		{"", false},
	}
	for _, tt := range tests {
		if got := ColorEnabled(&buf, tt.mode); got != tt.want {
			t.Errorf("ColorEnabled(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestNewThemePlainWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf, config.ColorNever)
	if th.Color {
		t.Fatal("theme should be colorless")
	}
	for name, got := range map[string]string{
		"title":     th.Title.Render("Status"),
		"done":      th.Done.Render("Status"),
		"available": th.Available.Render("Status"),
	} {
		if got != "Status" {
			t.Errorf("%s style added escapes: %q", name, got)
		}
	}
}

func TestNewThemeForcedColor(t *testing.T) {
	var buf bytes.Buffer
	th := NewTheme(&buf, config.ColorAlways)
	if !th.Color {
		t.Fatal("theme should be colored")
	}
	if got := th.Title.Render("Status"); !strings.Contains(got, "\x1b[") {
		t.Errorf("expected ANSI escapes, got %q", got)
	}
}

func TestMarker(t *testing.T) {
	tests := []struct {
		st   analysis.LockState
		want string
	}{
		{analysis.LockState{Completed: true, Locked: true}, "[x]"},
		{analysis.LockState{Locked: true, LevelLocked: true}, "[L]"},
		{analysis.LockState{LevelLocked: true}, "[lvl 20]"},
		{analysis.LockState{Available: true}, "[ ]"},
	}
	for _, tt := range tests {
		if got := Marker(tt.st, 20); got != tt.want {
			t.Errorf("Marker(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}
