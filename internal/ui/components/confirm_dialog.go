package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// ConfirmMsg carries the answer of a confirm dialog
type ConfirmMsg struct {
	Confirmed bool
}

// ConfirmDialog asks a yes/no question. No is the default.
type ConfirmDialog struct {
	Width   int
	Theme   theme.Theme
	Title   string
	Message string
	yes     bool
}

// NewConfirmDialog creates a confirm dialog
func NewConfirmDialog(th theme.Theme) *ConfirmDialog {
	return &ConfirmDialog{Width: 60, Theme: th}
}

// Ask resets the dialog with a new question
func (c *ConfirmDialog) Ask(title, message string) {
	c.Title = title
	c.Message = message
	c.yes = false
}

func answer(yes bool) tea.Cmd {
	return func() tea.Msg { return ConfirmMsg{Confirmed: yes} }
}

// Update handles keyboard input
func (c *ConfirmDialog) Update(msg tea.KeyMsg) (*ConfirmDialog, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return c, answer(true)
	case "n", "N", "esc", "q":
		return c, answer(false)
	case "left", "right", "h", "l", "tab":
		c.yes = !c.yes
	case "enter":
		return c, answer(c.yes)
	}
	return c, nil
}

// View renders the dialog
func (c *ConfirmDialog) View() string {
	button := lipgloss.NewStyle().Padding(0, 2)
	active := button.Background(c.Theme.BorderFocused).Foreground(lipgloss.Color("230")).Bold(true)

	yes, no := button.Render("Yes"), active.Render("No")
	if c.yes {
		yes, no = active.Render("Yes"), button.Render("No")
	}

	body := strings.Join([]string{
		lipgloss.NewStyle().Foreground(c.Theme.Warning).Bold(true).Render(c.Title),
		"",
		lipgloss.NewStyle().Width(c.Width - 6).Render(c.Message),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, yes, "  ", no),
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Theme.Warning).
		Padding(1, 2).
		Width(c.Width).
		Render(body)
}
