package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/errclass"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// ErrorOverlay shows a classified failure with its suggestion
type ErrorOverlay struct {
	Width   int
	Theme   theme.Theme
	display errclass.Display
}

// NewErrorOverlay creates an error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 70, Theme: th}
}

// SetError sets the failure to show
func (e *ErrorOverlay) SetError(d errclass.Display) {
	e.display = d
}

// Display returns the failure being shown
func (e *ErrorOverlay) Display() errclass.Display {
	return e.display
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(e.Theme.Error).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(e.Theme.Foreground).Width(e.Width - 4)
	hintStyle := lipgloss.NewStyle().Foreground(e.Theme.Metadata).Italic(true)

	title := e.display.Title
	if title == "" {
		title = "Error"
	}

	keys := []string{"Esc: dismiss", "q: quit"}
	if e.display.Retriable() {
		keys = append([]string{"r: retry"}, keys...)
	}

	body := strings.Join([]string{
		titleStyle.Render(title),
		"",
		textStyle.Render(e.display.Text()),
		"",
		hintStyle.Render(strings.Join(keys, " │ ")),
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(body)
}
