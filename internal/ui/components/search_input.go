package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// JumpToColumnMsg is sent when a column search is confirmed
type JumpToColumnMsg struct {
	Index int
}

// CloseSearchMsg is sent when search should be closed
type CloseSearchMsg struct{}

// SearchInput finds a column by fuzzy name, with optional kind prefixes
type SearchInput struct {
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
	Visible bool

	columns []models.Column
	meta    map[string]models.ColumnMeta
	matches []int
	current int
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Column name (r: d: s: t: to filter by kind, ! to negate)"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return &SearchInput{
		Input: ti,
		Theme: th,
	}
}

// Open shows the search over columns
func (s *SearchInput) Open(columns []models.Column, meta map[string]models.ColumnMeta) {
	s.columns = columns
	s.meta = meta
	s.Reset()
	s.Visible = true
	s.Input.Focus()
}

// Reset clears the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
	s.refresh()
}

// Matches returns the indexes of the matching columns
func (s *SearchInput) Matches() []int {
	return s.matches
}

func (s *SearchInput) refresh() {
	s.matches = FilterColumns(s.columns, s.meta, ParseSearchQuery(s.Input.Value()))
	s.current = 0
}

// Update handles messages
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "down":
			if len(s.matches) > 0 {
				s.current = (s.current + 1) % len(s.matches)
			}
			return s, nil
		case "shift+tab", "up":
			if len(s.matches) > 0 {
				s.current = (s.current - 1 + len(s.matches)) % len(s.matches)
			}
			return s, nil
		case "enter":
			if len(s.matches) == 0 {
				return s, nil
			}
			index := s.matches[s.current]
			s.Visible = false
			return s, func() tea.Msg {
				return JumpToColumnMsg{Index: index}
			}
		case "esc":
			s.Visible = false
			return s, func() tea.Msg {
				return CloseSearchMsg{}
			}
		}
	}

	before := s.Input.Value()
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	if s.Input.Value() != before {
		s.refresh()
	}
	return s, cmd
}

// View renders the search input
func (s *SearchInput) View() string {
	inputWidth := s.Width - 20
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Metadata).
		Italic(true)

	countStyle := lipgloss.NewStyle().Foreground(s.Theme.Info).Bold(true)
	count := fmt.Sprintf("[%d/%d]", len(s.matches), len(s.columns))
	content := countStyle.Render(count) + " " + s.Input.View()

	if len(s.matches) > 0 {
		names := make([]string, 0, 5)
		for i := 0; i < len(s.matches) && i < 5; i++ {
			j := (s.current + i) % len(s.matches)
			name := s.columns[s.matches[j]].Name
			if i == 0 {
				name = lipgloss.NewStyle().Reverse(true).Render(name)
			}
			names = append(names, name)
		}
		content += "\n" + strings.Join(names, "  ")
	}

	helpText := helpStyle.Render("Tab: next match │ Enter: jump │ Esc: close")
	return boxStyle.Render(content + "\n" + helpText)
}
