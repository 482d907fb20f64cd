package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPanel_InnerSize(t *testing.T) {
	p := Panel{Width: 40, Height: 10}
	if w, h := p.InnerSize(); w != 38 || h != 8 {
		t.Errorf("Expected 38x8, got %dx%d", w, h)
	}

	p.Title = "data.parquet"
	if _, h := p.InnerSize(); h != 7 {
		t.Errorf("Expected title to take a line, got height %d", h)
	}

	tiny := Panel{Width: 1, Height: 1}
	if w, h := tiny.InnerSize(); w != 0 || h != 0 {
		t.Errorf("Expected 0x0, got %dx%d", w, h)
	}
}

func TestPanel_View(t *testing.T) {
	p := Panel{Title: "data.parquet", Content: "hello", Width: 30, Height: 6, Style: lipgloss.NewStyle()}
	view := p.View()

	if !strings.Contains(view, "data.parquet") || !strings.Contains(view, "hello") {
		t.Errorf("Expected title and content in view:\n%s", view)
	}
	if got := lipgloss.Height(view); got != 6 {
		t.Errorf("Expected height 6, got %d", got)
	}

	if (&Panel{}).View() != "" {
		t.Error("Expected empty view for zero size")
	}
}
