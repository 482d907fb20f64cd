package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

func TestWrapText(t *testing.T) {
	lines := wrapText("abcdefghij\nxy", 4)
	want := []string{"abcd", "efgh", "ij", "xy"}
	if !equalLines(lines, want) {
		t.Errorf("wrapText = %q, want %q", lines, want)
	}

	// wide runes take two cells
	lines = wrapText("日本語テキスト", 4)
	if len(lines) != 4 || lines[0] != "日本" {
		t.Errorf("Unexpected wide wrap %q", lines)
	}
}

func equalLines(a, b []string) bool {
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

func newTestPreview() *PreviewPane {
	p := NewPreviewPane(theme.DefaultTheme())
	p.Width = 60
	p.Height = 12
	p.Visible = true
	cols := []models.Column{
		{Name: "id", Type: "BIGINT"},
		{Name: "payload", Type: "STRUCT(a INTEGER, b VARCHAR[])"},
		{Name: "note", Type: "VARCHAR"},
	}
	row := models.Row{
		"id":      int64(7),
		"payload": map[string]interface{}{"a": int32(1), "b": []interface{}{"x", "y"}},
		"note":    nil,
	}
	p.SetRow("7 of 100", cols, row, 1)
	return p
}

func TestPreviewPane_LayoutAndFocus(t *testing.T) {
	p := newTestPreview()

	view := p.View()
	for _, want := range []string{"Row 7 of 100", "payload (STRUCT", "\"a\": 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}

	col, ok := p.FocusedColumn()
	if !ok || col.Name != "payload" {
		t.Errorf("Expected payload focused, got %v", col)
	}

	p.NextField(1)
	if col, _ := p.FocusedColumn(); col.Name != "note" {
		t.Errorf("Expected note after next, got %s", col.Name)
	}
	p.NextField(1)
	if col, _ := p.FocusedColumn(); col.Name != "id" {
		t.Errorf("Expected wrap to id, got %s", col.Name)
	}
}

func TestPreviewPane_CopyValueAndRow(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	p := newTestPreview()

	if err := p.CopyValue(); err != nil {
		t.Fatalf("CopyValue: %v", err)
	}
	if !strings.Contains(copied, "\"b\": [") {
		t.Errorf("Expected pretty JSON value, got %q", copied)
	}

	if err := p.CopyRow(); err != nil {
		t.Fatalf("CopyRow: %v", err)
	}
	want := `{"id":7,"payload":{"a":1,"b":["x","y"]},"note":null}`
	if copied != want {
		t.Errorf("CopyRow = %s, want %s", copied, want)
	}
}

func TestPreviewPane_Scroll(t *testing.T) {
	p := newTestPreview()
	p.Height = 6
	p.SetRow("", p.columns, p.row, 0)

	if p.scrollY != 0 {
		t.Fatalf("Expected top scroll, got %d", p.scrollY)
	}
	for i := 0; i < 100; i++ {
		p.ScrollDown()
	}
	if p.scrollY != p.maxScroll() {
		t.Errorf("Expected scroll clamped to %d, got %d", p.maxScroll(), p.scrollY)
	}
	for i := 0; i < 100; i++ {
		p.ScrollUp()
	}
	if p.scrollY != 0 {
		t.Errorf("Expected scroll back at 0, got %d", p.scrollY)
	}
}
