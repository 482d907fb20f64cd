package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Panel represents a bordered UI panel
type Panel struct {
	Title   string
	Content string
	Width   int // outer width including the border
	Height  int // outer height including the border
	Style   lipgloss.Style
}

// InnerSize returns the content area inside the border and below the title
func (p *Panel) InnerSize() (int, int) {
	w := p.Width - 2
	h := p.Height - 2
	if p.Title != "" {
		h--
	}
	return max(w, 0), max(h, 0)
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 2 || p.Height <= 2 {
		return ""
	}

	style := p.Style.
		Width(p.Width - 2).
		Height(p.Height - 2).
		MaxHeight(p.Height).
		Border(lipgloss.RoundedBorder())

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		content = titleStyle.Render(p.Title) + "\n" + content
	}

	return style.Render(content)
}
