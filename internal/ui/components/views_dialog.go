package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// ViewsMode represents the dialog mode
type ViewsMode int

const (
	ViewsModeList ViewsMode = iota
	ViewsModeSave
)

// ApplyViewMsg is sent when a saved view should be applied
type ApplyViewMsg struct {
	View models.View
}

// SaveViewMsg is sent when the current sort and filters should be saved
type SaveViewMsg struct {
	Name string
}

// DeleteViewMsg is sent when a saved view should be deleted
type DeleteViewMsg struct {
	ID string
}

// CloseViewsDialogMsg is sent when dialog should close
type CloseViewsDialogMsg struct{}

// ViewsDialog lists, applies and saves the views of the current source
type ViewsDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	mode     ViewsMode
	views    []models.View
	selected int
	offset   int

	nameInput textinput.Model
}

// NewViewsDialog creates a new views dialog
func NewViewsDialog(th theme.Theme) *ViewsDialog {
	ti := textinput.New()
	ti.Placeholder = "view name"
	ti.CharLimit = 80
	ti.Width = 40

	return &ViewsDialog{
		Width:     70,
		Height:    20,
		Theme:     th,
		nameInput: ti,
	}
}

// SetViews updates the list
func (vd *ViewsDialog) SetViews(views []models.View) {
	vd.views = views
	vd.mode = ViewsModeList
	if vd.selected >= len(views) {
		vd.selected = max(len(views)-1, 0)
	}
	if vd.offset > vd.selected {
		vd.offset = vd.selected
	}
}

// Mode returns the current mode
func (vd *ViewsDialog) Mode() ViewsMode {
	return vd.mode
}

func (vd *ViewsDialog) visibleItems() int {
	n := (vd.Height - 8) / 2
	if n < 1 {
		n = 1
	}
	return n
}

// Update handles keyboard input
func (vd *ViewsDialog) Update(msg tea.KeyMsg) (*ViewsDialog, tea.Cmd) {
	if vd.mode == ViewsModeSave {
		return vd.handleSaveMode(msg)
	}
	return vd.handleListMode(msg)
}

func (vd *ViewsDialog) handleListMode(msg tea.KeyMsg) (*ViewsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return vd, func() tea.Msg { return CloseViewsDialogMsg{} }
	case "up", "k":
		if vd.selected > 0 {
			vd.selected--
			if vd.selected < vd.offset {
				vd.offset = vd.selected
			}
		}
	case "down", "j":
		if vd.selected < len(vd.views)-1 {
			vd.selected++
			if vd.selected >= vd.offset+vd.visibleItems() {
				vd.offset = vd.selected - vd.visibleItems() + 1
			}
		}
	case "enter":
		if vd.selected < len(vd.views) {
			v := vd.views[vd.selected]
			return vd, func() tea.Msg { return ApplyViewMsg{View: v} }
		}
	case "a", "n", "s":
		vd.mode = ViewsModeSave
		vd.nameInput.SetValue("")
		vd.nameInput.Focus()
	case "d", "x":
		if vd.selected < len(vd.views) {
			id := vd.views[vd.selected].ID
			return vd, func() tea.Msg { return DeleteViewMsg{ID: id} }
		}
	}
	return vd, nil
}

func (vd *ViewsDialog) handleSaveMode(msg tea.KeyMsg) (*ViewsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc":
		vd.mode = ViewsModeList
		vd.nameInput.Blur()
		return vd, nil
	case "enter":
		name := strings.TrimSpace(vd.nameInput.Value())
		if name == "" {
			return vd, nil
		}
		vd.mode = ViewsModeList
		vd.nameInput.Blur()
		return vd, func() tea.Msg { return SaveViewMsg{Name: name} }
	}

	var cmd tea.Cmd
	vd.nameInput, cmd = vd.nameInput.Update(msg)
	return vd, cmd
}

// describe summarizes the sort and filters of a view on one line
func describe(v models.View) string {
	var parts []string
	if v.Sort.IsSorted() {
		parts = append(parts, fmt.Sprintf("sort %s %s", v.Sort.Column, strings.ToLower(string(v.Sort.Direction))))
	}
	names := make([]string, 0, len(v.Filters))
	for name := range v.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := v.Filters[name]
		switch {
		case f.Value == "" && f.Min == "" && f.Max == "":
			continue
		case f.Value != "":
			parts = append(parts, fmt.Sprintf("%s=%s", name, f.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s∈[%s,%s]", name, f.Min, f.Max))
		}
	}
	if len(parts) == 0 {
		return "no sort or filters"
	}
	return strings.Join(parts, ", ")
}

// View renders the dialog
func (vd *ViewsDialog) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(vd.Theme.Foreground).
		Background(vd.Theme.Info).
		Padding(0, 1).
		Bold(true)
	instrStyle := lipgloss.NewStyle().
		Foreground(vd.Theme.Metadata).
		Padding(0, 1)

	if vd.mode == ViewsModeSave {
		sections = append(sections, titleStyle.Render("Save View"))
		sections = append(sections, instrStyle.Render("Enter: Save  Esc: Cancel"))
		sections = append(sections, "", "Name: "+vd.nameInput.View())
	} else {
		sections = append(sections, titleStyle.Render("Saved Views"))
		sections = append(sections, instrStyle.Render("↑↓: Navigate  Enter: Apply  s: Save current  d: Delete  Esc: Close"))

		if len(vd.views) == 0 {
			sections = append(sections, "", "No saved views for this file. Press 's' to save one.")
		} else {
			sections = append(sections, "")
			end := min(vd.offset+vd.visibleItems(), len(vd.views))
			for i := vd.offset; i < end; i++ {
				v := vd.views[i]
				line := fmt.Sprintf("%s\n  %s", v.Name, describe(v))
				style := lipgloss.NewStyle().Padding(0, 1)
				if i == vd.selected {
					style = style.Background(vd.Theme.Selection).Foreground(vd.Theme.Foreground)
				}
				sections = append(sections, style.Render(line))
			}
		}
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(vd.Theme.Border).
		Width(vd.Width).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}
