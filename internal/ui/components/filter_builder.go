package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/filter"
	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// FilterChangedMsg is sent on every edit of a column filter. Immediate edits
// (selection, enter, clear) should skip the debounce.
type FilterChangedMsg struct {
	Column    string
	Update    models.FilterUpdate
	Immediate bool
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

// anyOption is the first entry of a select list and clears the filter
const anyOption = "(any)"

// FilterBuilder edits the filter of one column. The editor shape depends on
// the column's filter kind: one text input for text, a min and a max input
// for range and date, and a value list for select.
type FilterBuilder struct {
	Width   int
	Height  int
	Theme   theme.Theme
	Visible bool

	column models.Column
	meta   models.ColumnMeta

	value textinput.Model
	min   textinput.Model
	max   textinput.Model
	focus models.FilterField

	options  []string
	selected int
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 256
		ti.Width = 30
		return ti
	}

	return &FilterBuilder{
		Width:  60,
		Height: 12,
		Theme:  th,
		value:  newInput("contains…"),
		min:    newInput("min"),
		max:    newInput("max"),
	}
}

// Open starts editing column with its current filter value
func (fb *FilterBuilder) Open(column models.Column, meta models.ColumnMeta, current models.FilterValue) {
	if meta.Kind == "" {
		meta.Kind = models.KindText
	}
	fb.column = column
	fb.meta = meta
	fb.Visible = true

	fb.value.SetValue(current.Value)
	fb.min.SetValue(current.Min)
	fb.max.SetValue(current.Max)

	switch meta.Kind {
	case models.KindDate:
		fb.min.Placeholder = "from YYYY-MM-DD"
		fb.max.Placeholder = "to YYYY-MM-DD"
	case models.KindRange:
		fb.min.Placeholder = "min"
		fb.max.Placeholder = "max"
	}

	fb.options = append([]string{anyOption}, meta.Values...)
	fb.selected = 0
	for i, v := range meta.Values {
		if v == current.Value {
			fb.selected = i + 1
		}
	}

	fb.setFocus(models.FieldValue)
	if meta.Kind.IsBounded() {
		fb.setFocus(models.FieldMin)
	}
}

// Column returns the column being edited
func (fb *FilterBuilder) Column() string {
	return fb.column.Name
}

func (fb *FilterBuilder) setFocus(field models.FilterField) {
	fb.focus = field
	fb.value.Blur()
	fb.min.Blur()
	fb.max.Blur()
	switch field {
	case models.FieldMin:
		fb.min.Focus()
	case models.FieldMax:
		fb.max.Focus()
	default:
		fb.value.Focus()
	}
}

func (fb *FilterBuilder) focused() *textinput.Model {
	switch fb.focus {
	case models.FieldMin:
		return &fb.min
	case models.FieldMax:
		return &fb.max
	default:
		return &fb.value
	}
}

func (fb *FilterBuilder) changed(field models.FilterField, value string, immediate bool) tea.Cmd {
	msg := FilterChangedMsg{
		Column:    fb.column.Name,
		Update:    models.FilterUpdate{Field: field, Value: value},
		Immediate: immediate,
	}
	return func() tea.Msg { return msg }
}

func closeFilterBuilder() tea.Msg {
	return CloseFilterBuilderMsg{}
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.Visible = false
		return fb, closeFilterBuilder
	case "ctrl+r":
		// clear every part of this column's filter
		fb.value.SetValue("")
		fb.min.SetValue("")
		fb.max.SetValue("")
		fb.selected = 0
		fb.Visible = false
		return fb, tea.Batch(fb.changed(models.FieldValue, "", true), closeFilterBuilder)
	}

	if fb.meta.Kind == models.KindSelect {
		return fb.handleSelect(msg)
	}
	return fb.handleInput(msg)
}

func (fb *FilterBuilder) handleSelect(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fb.selected > 0 {
			fb.selected--
		}
	case "down", "j":
		if fb.selected < len(fb.options)-1 {
			fb.selected++
		}
	case "enter", " ":
		value := ""
		if fb.selected > 0 {
			value = fb.options[fb.selected]
		}
		fb.Visible = false
		return fb, tea.Batch(fb.changed(models.FieldValue, value, true), closeFilterBuilder)
	}
	return fb, nil
}

func (fb *FilterBuilder) handleInput(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if fb.meta.Kind.IsBounded() {
			if fb.focus == models.FieldMin {
				fb.setFocus(models.FieldMax)
			} else {
				fb.setFocus(models.FieldMin)
			}
		}
		return fb, nil
	case "enter":
		input := fb.focused()
		fb.Visible = false
		return fb, tea.Batch(fb.changed(fb.focus, input.Value(), true), closeFilterBuilder)
	}

	input := fb.focused()
	before := input.Value()
	next, cmd := input.Update(msg)
	*input = next

	if after := input.Value(); after != before {
		return fb, tea.Batch(cmd, fb.changed(fb.focus, after, false))
	}
	return fb, cmd
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Foreground).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	title := fmt.Sprintf("Filter %s", escape.TruncateName(fb.column.Name, escape.DefaultMaxNameLength))
	sections = append(sections, titleStyle.Render(title))

	metaStyle := lipgloss.NewStyle().Foreground(fb.Theme.Metadata)
	sections = append(sections, metaStyle.Render(fmt.Sprintf("%s · %s", fb.column.Type, fb.meta.Kind)))
	sections = append(sections, "")

	warnStyle := lipgloss.NewStyle().Foreground(fb.Theme.Warning)
	hint := "Enter: apply │ Ctrl+R: clear │ Esc: close"

	switch fb.meta.Kind {
	case models.KindSelect:
		for i, opt := range fb.options {
			line := "  " + opt
			style := lipgloss.NewStyle().Padding(0, 1)
			if i == fb.selected {
				line = "▸ " + opt
				style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
			}
			sections = append(sections, style.Render(line))
		}
		hint = "↑↓: choose │ Enter: apply │ Ctrl+R: clear │ Esc: close"

	case models.KindRange, models.KindDate:
		labels := []struct {
			label string
			input *textinput.Model
		}{
			{"From", &fb.min},
			{"To  ", &fb.max},
		}
		for _, l := range labels {
			line := fmt.Sprintf("%s %s", l.label, l.input.View())
			if !filter.ValidBound(fb.meta.Kind, l.input.Value()) {
				line += " " + warnStyle.Render(fb.invalidHint())
			}
			sections = append(sections, line)
		}
		hint = "Tab: switch bound │ " + hint

	default:
		sections = append(sections, "Contains "+fb.value.View())
	}

	sections = append(sections, "")
	helpStyle := lipgloss.NewStyle().Foreground(fb.Theme.Metadata).Italic(true)
	sections = append(sections, helpStyle.Render(hint))

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Width(fb.Width).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}

func (fb *FilterBuilder) invalidHint() string {
	if fb.meta.Kind == models.KindDate {
		return "not a YYYY-MM-DD date, ignored"
	}
	return "not a number, ignored"
}
