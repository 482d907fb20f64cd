package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/source"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// CloseSchemaViewMsg is sent when the schema view should close
type CloseSchemaViewMsg struct{}

const (
	schemaTabColumns = iota
	schemaTabFile
)

// SchemaView is a tabbed view of the loaded columns and of the file footer
type SchemaView struct {
	Width  int
	Height int
	Theme  theme.Theme

	activeTab int

	columnsTable *TableView
	fileTable    *TableView

	columns      []models.Column
	totalColumns int
}

// NewSchemaView creates a new schema view
func NewSchemaView(th theme.Theme) *SchemaView {
	return &SchemaView{
		Theme:        th,
		columnsTable: NewTableView(th),
		fileTable:    NewTableView(th),
	}
}

var (
	schemaColumns = []models.Column{
		{Name: "#", Type: "INTEGER"},
		{Name: "Name", Type: "VARCHAR"},
		{Name: "Type", Type: "VARCHAR"},
		{Name: "Filter", Type: "VARCHAR"},
		{Name: "Values", Type: "VARCHAR"},
	}
	fileColumns = []models.Column{
		{Name: "Property", Type: "VARCHAR"},
		{Name: "Value", Type: "VARCHAR"},
	}
)

// SetSchema fills both tabs. info is nil when the footer was not read, as
// for remote files and globs.
func (sv *SchemaView) SetSchema(src string, columns []models.Column, totalColumns int, meta map[string]models.ColumnMeta, info *source.Info) {
	sv.columns = columns
	sv.totalColumns = totalColumns

	rows := make([]models.Row, len(columns))
	for i, col := range columns {
		m := meta[col.Name]
		values := strings.Join(m.Values, ", ")
		rows[i] = models.Row{
			"#":      int64(i + 1),
			"Name":   col.Name,
			"Type":   col.Type,
			"Filter": string(m.Kind),
			"Values": values,
		}
	}
	sv.columnsTable.SetData(schemaColumns, rows, models.SortSpec{}, nil)

	props := [][2]string{
		{"Source", src},
		{"Columns", fmt.Sprintf("%d", totalColumns)},
	}
	if totalColumns > len(columns) {
		props = append(props, [2]string{"Shown", fmt.Sprintf("first %d", len(columns))})
	}
	if info != nil {
		props = append(props,
			[2]string{"Size", formatBytes(info.Size)},
			[2]string{"Rows (footer)", fmt.Sprintf("%d", info.Rows)},
			[2]string{"Row groups", fmt.Sprintf("%d", info.RowGroups)},
		)
	}
	fileRows := make([]models.Row, len(props))
	for i, p := range props {
		fileRows[i] = models.Row{"Property": p[0], "Value": p[1]}
	}
	sv.fileTable.SetData(fileColumns, fileRows, models.SortSpec{}, nil)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// SwitchTab selects a tab
func (sv *SchemaView) SwitchTab(tabIndex int) {
	if tabIndex == schemaTabColumns || tabIndex == schemaTabFile {
		sv.activeTab = tabIndex
	}
}

func (sv *SchemaView) activeTable() *TableView {
	if sv.activeTab == schemaTabFile {
		return sv.fileTable
	}
	return sv.columnsTable
}

// Update handles keyboard input. Enter on a column jumps to it in the data table.
func (sv *SchemaView) Update(msg tea.KeyMsg) (*SchemaView, tea.Cmd) {
	current := sv.activeTable()

	switch msg.String() {
	case "esc", "q", "i":
		return sv, func() tea.Msg { return CloseSchemaViewMsg{} }
	case "tab", "shift+tab":
		sv.SwitchTab(1 - sv.activeTab)
	case "up", "k":
		current.MoveSelection(-1)
	case "down", "j":
		current.MoveSelection(1)
	case "left", "h":
		current.MoveColumn(-1)
	case "right", "l":
		current.MoveColumn(1)
	case "g":
		current.Top()
	case "G":
		current.Bottom()
	case "enter":
		if sv.activeTab == schemaTabColumns && len(sv.columns) > 0 {
			index := sv.columnsTable.SelectedRow
			return sv, func() tea.Msg { return JumpToColumnMsg{Index: index} }
		}
	}
	return sv, nil
}

// View renders the schema view
func (sv *SchemaView) View() string {
	var b strings.Builder

	b.WriteString(sv.renderTabBar())
	b.WriteString("\n")

	// tab bar and help line
	contentHeight := sv.Height - 3
	current := sv.activeTable()
	current.Width = sv.Width
	current.Height = contentHeight
	b.WriteString(current.View())
	b.WriteString("\n")

	help := "Tab: switch │ Enter: go to column │ Esc: close"
	b.WriteString(lipgloss.NewStyle().Foreground(sv.Theme.Metadata).Italic(true).Render(help))
	return b.String()
}

func (sv *SchemaView) renderTabBar() string {
	tabs := []string{"Columns", "File"}

	var parts []string
	for i, label := range tabs {
		if i == sv.activeTab {
			indicator := lipgloss.NewStyle().Foreground(sv.Theme.Info).Bold(true).Render("▌")
			tab := lipgloss.NewStyle().
				Bold(true).
				Foreground(sv.Theme.Foreground).
				Background(sv.Theme.Selection).
				Padding(0, 1).
				Render(label)
			parts = append(parts, indicator+tab)
		} else {
			parts = append(parts, lipgloss.NewStyle().Foreground(sv.Theme.Metadata).Padding(0, 1).Render(label))
		}

		if i < len(tabs)-1 {
			parts = append(parts, lipgloss.NewStyle().Foreground(sv.Theme.Border).Render(" │ "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
