package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/parqview/internal/cell"
	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

const (
	minColumnWidth = 4
	columnGap      = " │ "
)

// TableView displays loaded rows with a row cursor, a column cursor and
// horizontal scrolling over wide schemas
type TableView struct {
	Width  int
	Height int
	Theme  theme.Theme

	// MaxHeaderLength caps header names; MaxCellWidth caps column widths
	MaxHeaderLength int
	MaxCellWidth    int

	Columns []models.Column
	Rows    []models.Row
	Sort    models.SortSpec
	Filters models.Filters

	// Virtual scrolling state
	TopRow      int
	SelectedRow int
	LeftColumn  int
	SelectedCol int

	// Column widths (calculated)
	ColumnWidths []int

	// formatted[i][j] is row i, column j as displayed
	formatted [][]string
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Theme:           th,
		MaxHeaderLength: escape.DefaultMaxNameLength,
		MaxCellWidth:    50,
		Filters:         models.Filters{},
	}
}

// SetData replaces the table contents and resets the row cursor. The column
// cursor survives when the columns are unchanged.
func (tv *TableView) SetData(columns []models.Column, rows []models.Row, sort models.SortSpec, filters models.Filters) {
	if !sameColumns(columns, tv.Columns) {
		tv.LeftColumn = 0
		tv.SelectedCol = 0
	}
	tv.Columns = columns
	tv.Sort = sort
	tv.Filters = filters

	tv.formatted = make([][]string, 0, len(rows))
	tv.Rows = nil
	tv.TopRow = 0
	tv.SelectedRow = 0
	tv.AppendRows(rows)
}

// AppendRows takes the full row list after a page was appended and formats
// only the rows not seen before. The cursors stay put.
func (tv *TableView) AppendRows(rows []models.Row) {
	if len(rows) < len(tv.formatted) {
		tv.formatted = tv.formatted[:0]
	}
	for _, row := range rows[len(tv.formatted):] {
		tv.formatted = append(tv.formatted, tv.formatRow(row))
	}
	tv.Rows = rows
	tv.clampRow()
	tv.calculateColumnWidths()
}

func sameColumns(a, b []models.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (tv *TableView) formatRow(row models.Row) []string {
	out := make([]string, len(tv.Columns))
	for j, col := range tv.Columns {
		out[j] = cell.Format(row[col.Name])
	}
	return out
}

// header returns the displayed header for column i, with its sort marker
func (tv *TableView) header(i int) string {
	col := tv.Columns[i]
	name := escape.TruncateName(col.Name, tv.MaxHeaderLength)
	if tv.Sort.Column == col.Name {
		switch tv.Sort.Direction {
		case models.SortAsc:
			name += " ▲"
		case models.SortDesc:
			name += " ▼"
		}
	}
	if _, ok := tv.Filters[col.Name]; ok {
		name += " ●"
	}
	return name
}

// calculateColumnWidths calculates optimal column widths
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i := range tv.Columns {
		w := cell.Width(tv.header(i))
		for _, row := range tv.formatted {
			if cw := cell.Width(row[i]); cw > w {
				w = cw
			}
		}
		if w > tv.MaxCellWidth {
			w = tv.MaxCellWidth
		}
		if w < minColumnWidth {
			w = minColumnWidth
		}
		tv.ColumnWidths[i] = w
	}
}

// visibleRows is the number of data rows that fit
func (tv *TableView) visibleRows() int {
	// header + separator
	n := tv.Height - 2
	if n < 1 {
		n = 1
	}
	return n
}

// visibleColumns returns the column range [LeftColumn, end) that fits Width
func (tv *TableView) visibleColumns() int {
	used := 1
	end := tv.LeftColumn
	for end < len(tv.Columns) {
		w := tv.ColumnWidths[end]
		if end > tv.LeftColumn {
			w += len([]rune(columnGap))
		}
		if used+w > tv.Width && end > tv.LeftColumn {
			break
		}
		used += w
		end++
	}
	return end
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Metadata).Render("No data")
	}

	end := tv.visibleColumns()

	var b strings.Builder
	b.WriteString(tv.renderHeader(end))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(end))

	last := tv.TopRow + tv.visibleRows()
	if last > len(tv.formatted) {
		last = len(tv.formatted)
	}
	for i := tv.TopRow; i < last; i++ {
		b.WriteString("\n")
		b.WriteString(tv.renderRow(i, end))
	}

	if len(tv.formatted) == 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Metadata).Italic(true).Render(" No rows match the current filters"))
	}

	return b.String()
}

func (tv *TableView) renderHeader(end int) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(tv.Theme.TableHeader)
	cursorStyle := headerStyle.Reverse(true)

	parts := make([]string, 0, end-tv.LeftColumn)
	for i := tv.LeftColumn; i < end; i++ {
		text := cell.Pad(tv.header(i), tv.ColumnWidths[i])
		if i == tv.SelectedCol {
			parts = append(parts, cursorStyle.Render(text))
			continue
		}
		parts = append(parts, headerStyle.Render(text))
	}
	return " " + strings.Join(parts, columnGap)
}

func (tv *TableView) renderSeparator(end int) string {
	parts := make([]string, 0, end-tv.LeftColumn)
	for i := tv.LeftColumn; i < end; i++ {
		parts = append(parts, strings.Repeat("─", tv.ColumnWidths[i]))
	}
	return lipgloss.NewStyle().Foreground(tv.Theme.Border).Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(i, end int) string {
	selected := i == tv.SelectedRow
	nullStyle := lipgloss.NewStyle().Foreground(tv.Theme.Null).Italic(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Underline(true)

	row := tv.formatted[i]
	parts := make([]string, 0, end-tv.LeftColumn)
	for j := tv.LeftColumn; j < end; j++ {
		text := cell.Pad(row[j], tv.ColumnWidths[j])
		switch {
		case selected && j == tv.SelectedCol:
			text = cursorStyle.Render(text)
		case !selected && row[j] == cell.Null:
			text = nullStyle.Render(text)
		}
		parts = append(parts, text)
	}

	line := " " + strings.Join(parts, columnGap)
	if selected {
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(lipgloss.Color("15")).
			Render(line)
	}
	return line
}

// MoveSelection moves the row cursor up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta
	tv.clampRow()
}

// MoveColumn moves the column cursor left or right
func (tv *TableView) MoveColumn(delta int) {
	if len(tv.Columns) == 0 {
		return
	}
	tv.SelectedCol += delta
	if tv.SelectedCol < 0 {
		tv.SelectedCol = 0
	}
	if tv.SelectedCol >= len(tv.Columns) {
		tv.SelectedCol = len(tv.Columns) - 1
	}
	tv.ensureColumnVisible()
}

// JumpToColumn puts the column cursor on column i
func (tv *TableView) JumpToColumn(i int) {
	if i < 0 || i >= len(tv.Columns) {
		return
	}
	tv.SelectedCol = i
	tv.ensureColumnVisible()
}

func (tv *TableView) ensureColumnVisible() {
	if tv.SelectedCol < tv.LeftColumn {
		tv.LeftColumn = tv.SelectedCol
		return
	}
	for tv.SelectedCol >= tv.visibleColumns() && tv.LeftColumn < tv.SelectedCol {
		tv.LeftColumn++
	}
}

// PageUp moves the row cursor one screen up
func (tv *TableView) PageUp() {
	tv.SelectedRow -= tv.visibleRows()
	tv.clampRow()
}

// PageDown moves the row cursor one screen down
func (tv *TableView) PageDown() {
	tv.SelectedRow += tv.visibleRows()
	tv.clampRow()
}

// Top moves to the first row
func (tv *TableView) Top() {
	tv.SelectedRow = 0
	tv.clampRow()
}

// Bottom moves to the last loaded row
func (tv *TableView) Bottom() {
	tv.SelectedRow = len(tv.Rows) - 1
	tv.clampRow()
}

func (tv *TableView) clampRow() {
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	visible := tv.visibleRows()
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.SelectedRow >= tv.TopRow+visible {
		tv.TopRow = tv.SelectedRow - visible + 1
	}
	if tv.TopRow < 0 {
		tv.TopRow = 0
	}
}

// NearEnd reports whether the cursor is within margin rows of the last
// loaded row
func (tv *TableView) NearEnd(margin int) bool {
	return len(tv.Rows) > 0 && tv.SelectedRow >= len(tv.Rows)-1-margin
}

// CurrentRow returns the row under the cursor
func (tv *TableView) CurrentRow() (models.Row, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) {
		return nil, false
	}
	return tv.Rows[tv.SelectedRow], true
}

// CurrentColumn returns the column under the column cursor
func (tv *TableView) CurrentColumn() (models.Column, bool) {
	if tv.SelectedCol < 0 || tv.SelectedCol >= len(tv.Columns) {
		return models.Column{}, false
	}
	return tv.Columns[tv.SelectedCol], true
}
