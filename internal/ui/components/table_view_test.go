package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

func testColumns() []models.Column {
	return []models.Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "name", Type: "VARCHAR"},
		{Name: "note", Type: "VARCHAR"},
	}
}

func testRows(n int) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{"id": int64(i + 1), "name": fmt.Sprintf("row-%d", i+1), "note": nil}
	}
	return rows
}

func newTestTable(rows int) *TableView {
	tv := NewTableView(theme.DefaultTheme())
	tv.Width = 80
	tv.Height = 12
	tv.SetData(testColumns(), testRows(rows), models.SortSpec{}, models.Filters{})
	return tv
}

func TestTableView_EmptyState(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	if !strings.Contains(tv.View(), "No data") {
		t.Error("Expected empty state message")
	}

	tv.Width, tv.Height = 80, 10
	tv.SetData(testColumns(), nil, models.SortSpec{}, models.Filters{})
	if !strings.Contains(tv.View(), "No rows match") {
		t.Error("Expected no-rows message for an empty page")
	}
}

func TestTableView_RendersNullAndValues(t *testing.T) {
	tv := newTestTable(3)
	view := tv.View()

	for _, want := range []string{"id", "name", "row-1", "row-3", "NULL"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestTableView_SortAndFilterIndicators(t *testing.T) {
	tv := newTestTable(2)
	tv.SetData(testColumns(), testRows(2), models.SortSpec{Column: "name", Direction: models.SortDesc},
		models.Filters{"id": {Min: "1"}})

	if got := tv.header(1); got != "name ▼" {
		t.Errorf("Expected descending marker, got %q", got)
	}
	if got := tv.header(0); got != "id ●" {
		t.Errorf("Expected filter marker, got %q", got)
	}

	tv.Sort = models.SortSpec{Column: "name", Direction: models.SortAsc}
	if got := tv.header(1); got != "name ▲" {
		t.Errorf("Expected ascending marker, got %q", got)
	}
}

func TestTableView_HeaderTruncation(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.MaxHeaderLength = 8
	tv.SetData([]models.Column{{Name: "a_very_long_column_name", Type: "VARCHAR"}}, nil, models.SortSpec{}, models.Filters{})

	if got := tv.header(0); got != "a_very_…" {
		t.Errorf("Expected truncated header, got %q", got)
	}
}

func TestTableView_MoveSelectionBounds(t *testing.T) {
	tv := newTestTable(5)

	tv.MoveSelection(-1)
	if tv.SelectedRow != 0 {
		t.Errorf("Expected row 0, got %d", tv.SelectedRow)
	}

	tv.MoveSelection(100)
	if tv.SelectedRow != 4 {
		t.Errorf("Expected row 4, got %d", tv.SelectedRow)
	}
	if !tv.NearEnd(0) {
		t.Error("Expected cursor at end")
	}
}

func TestTableView_ScrollKeepsCursorVisible(t *testing.T) {
	tv := newTestTable(50)
	visible := tv.visibleRows()

	tv.PageDown()
	if tv.SelectedRow != visible {
		t.Errorf("Expected row %d after page down, got %d", visible, tv.SelectedRow)
	}
	if tv.SelectedRow < tv.TopRow || tv.SelectedRow >= tv.TopRow+visible {
		t.Errorf("Cursor %d outside window starting at %d", tv.SelectedRow, tv.TopRow)
	}

	tv.Bottom()
	if tv.SelectedRow != 49 {
		t.Errorf("Expected last row, got %d", tv.SelectedRow)
	}
	tv.Top()
	if tv.SelectedRow != 0 || tv.TopRow != 0 {
		t.Errorf("Expected top, got row %d top %d", tv.SelectedRow, tv.TopRow)
	}
}

func TestTableView_AppendKeepsCursor(t *testing.T) {
	tv := newTestTable(5)
	tv.MoveSelection(3)

	rows := append(tv.Rows, testRows(10)[5:]...)
	tv.AppendRows(rows)

	if tv.SelectedRow != 3 {
		t.Errorf("Expected cursor to stay on row 3, got %d", tv.SelectedRow)
	}
	if len(tv.formatted) != 10 {
		t.Errorf("Expected 10 formatted rows, got %d", len(tv.formatted))
	}
	if tv.NearEnd(2) {
		t.Error("Cursor should no longer be near the end")
	}
}

func TestTableView_SetDataResetsRowCursor(t *testing.T) {
	tv := newTestTable(5)
	tv.MoveSelection(2)
	tv.MoveColumn(1)

	tv.SetData(testColumns(), testRows(3), models.SortSpec{Column: "id", Direction: models.SortAsc}, models.Filters{})

	if tv.SelectedRow != 0 {
		t.Errorf("Expected row cursor reset, got %d", tv.SelectedRow)
	}
	if tv.SelectedCol != 1 {
		t.Errorf("Expected column cursor kept, got %d", tv.SelectedCol)
	}

	tv.SetData([]models.Column{{Name: "x", Type: "INTEGER"}}, nil, models.SortSpec{}, models.Filters{})
	if tv.SelectedCol != 0 {
		t.Errorf("Expected column cursor reset for new schema, got %d", tv.SelectedCol)
	}
}

func TestTableView_HorizontalScroll(t *testing.T) {
	cols := make([]models.Column, 20)
	row := models.Row{}
	for i := range cols {
		cols[i] = models.Column{Name: fmt.Sprintf("column_%02d", i), Type: "VARCHAR"}
		row[cols[i].Name] = "value"
	}

	tv := NewTableView(theme.DefaultTheme())
	tv.Width = 40
	tv.Height = 10
	tv.SetData(cols, []models.Row{row}, models.SortSpec{}, models.Filters{})

	tv.JumpToColumn(15)
	if tv.LeftColumn == 0 {
		t.Error("Expected horizontal scroll")
	}
	if end := tv.visibleColumns(); tv.SelectedCol < tv.LeftColumn || tv.SelectedCol >= end {
		t.Errorf("Selected column %d outside [%d,%d)", tv.SelectedCol, tv.LeftColumn, end)
	}
	if !strings.Contains(tv.View(), "column_15") {
		t.Error("Expected selected column header in view")
	}

	tv.MoveColumn(-100)
	if tv.SelectedCol != 0 || tv.LeftColumn != 0 {
		t.Errorf("Expected first column, got col %d left %d", tv.SelectedCol, tv.LeftColumn)
	}

	col, ok := tv.CurrentColumn()
	if !ok || col.Name != "column_00" {
		t.Errorf("Unexpected current column %v", col)
	}
}

func TestTableView_CurrentRow(t *testing.T) {
	tv := newTestTable(3)
	tv.MoveSelection(1)

	row, ok := tv.CurrentRow()
	if !ok {
		t.Fatal("Expected a current row")
	}
	if row["name"] != "row-2" {
		t.Errorf("Unexpected row %v", row)
	}

	empty := NewTableView(theme.DefaultTheme())
	if _, ok := empty.CurrentRow(); ok {
		t.Error("Expected no row on empty table")
	}
}
