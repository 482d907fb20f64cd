package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit"},
		{"r", "Retry after an error"},
		{"S", "Show the page query"},
		{"e", "Export loaded rows to CSV"},
	}
}

// GetNavigationKeys returns navigation key bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move row cursor"},
		{"←/h →/l", "Move column cursor"},
		{"g / G", "First / last loaded row"},
		{"Ctrl+U / Ctrl+D", "Page up / down"},
		{"/", "Search columns (r: d: s: t: kind prefixes, ! negates)"},
		{"Enter", "Row detail"},
	}
}

// GetDataViewKeys returns data view key bindings
func GetDataViewKeys() []KeyBinding {
	return []KeyBinding{
		{"s", "Sort by column (toggles direction)"},
		{"f", "Filter column"},
		{"F, Ctrl+R", "Clear all filters"},
		{"n", "Load next chunk (automatic near the end)"},
		{"A", "Load all rows"},
		{"v", "Saved views"},
		{"i", "Schema and file info"},
	}
}

// GetDetailKeys returns row detail key bindings
func GetDetailKeys() []KeyBinding {
	return []KeyBinding{
		{"Tab / Shift+Tab", "Next / previous field"},
		{"y", "Copy field value"},
		{"Y", "Copy row as JSON"},
		{"Esc", "Close"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Navigation", GetNavigationKeys()},
		{"Data View", GetDataViewKeys()},
		{"Row Detail", GetDetailKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.TableHeader).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("parqview - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 5))

	return boxStyle.Render(b.String())
}
