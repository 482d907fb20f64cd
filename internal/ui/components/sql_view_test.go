package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

func TestFormatSQL_BreaksClauses(t *testing.T) {
	sv := NewSQLView(theme.DefaultTheme())
	sql := `SELECT "id", "name" FROM read_parquet('/tmp/a FROM b.parquet') ` +
		`WHERE ("id" >= 18 AND "id" <= 65) AND (CAST("name" AS VARCHAR) ILIKE '%and where%' ESCAPE '\') ` +
		`ORDER BY "name" DESC LIMIT 100 OFFSET 200`

	got := FormatSQL(sv.lexer, sql)
	want := []string{
		`SELECT "id", "name"`,
		`FROM read_parquet('/tmp/a FROM b.parquet')`,
		`WHERE ("id" >= 18 AND "id" <= 65)`,
		`  AND (CAST("name" AS VARCHAR) ILIKE '%and where%' ESCAPE '\')`,
		`ORDER BY "name" DESC`,
		`LIMIT 100 OFFSET 200`,
	}

	if len(got) != len(want) {
		t.Fatalf("FormatSQL returned %d lines:\n%s", len(got), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatSQL_Empty(t *testing.T) {
	if lines := FormatSQL(nil, "  "); lines != nil {
		t.Errorf("Expected no lines, got %q", lines)
	}
}

func TestSQLView_CopyAndScroll(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	sv := NewSQLView(theme.DefaultTheme())
	if err := sv.Copy(); err == nil {
		t.Error("Expected error copying an empty statement")
	}

	sql := "SELECT * FROM read_parquet('x.parquet') LIMIT 100 OFFSET 0"
	sv.SetSQL(sql)
	if err := sv.Copy(); err != nil || copied != sql {
		t.Errorf("Copy = %v, copied %q", err, copied)
	}

	sv.Height = 6 // one content line
	sv, _ = sv.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	if sv.scrollY != len(sv.Lines())-1 {
		t.Errorf("Expected scroll to last line, got %d", sv.scrollY)
	}
	sv, _ = sv.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if sv.scrollY != len(sv.Lines())-1 {
		t.Errorf("Expected scroll clamped, got %d", sv.scrollY)
	}

	_, cmd := sv.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(CloseSQLViewMsg); !ok {
		t.Error("Expected CloseSQLViewMsg")
	}
}

func TestSQLView_ViewShowsLineNumbers(t *testing.T) {
	sv := NewSQLView(theme.DefaultTheme())
	sv.SetSQL("SELECT * FROM read_parquet('x.parquet') LIMIT 100 OFFSET 0")

	view := sv.View()
	if !strings.Contains(view, "Page query") || !strings.Contains(view, "1") {
		t.Errorf("Unexpected view:\n%s", view)
	}
}

func TestSourceOf(t *testing.T) {
	sv := NewSQLView(theme.DefaultTheme())
	tests := []struct {
		sql  string
		want string
	}{
		{`SELECT * FROM read_parquet('x.parquet') LIMIT 10 OFFSET 0`, "x.parquet"},
		{`SELECT "k" FROM read_parquet('/tmp/o''neil''s.parquet', file_row_number = true) ORDER BY "k" ASC, file_row_number LIMIT 10 OFFSET 0`, "/tmp/o'neil's.parquet"},
		{`SELECT 1`, ""},
	}
	for _, tt := range tests {
		if got := SourceOf(sv.lexer, tt.sql); got != tt.want {
			t.Errorf("SourceOf(%q) = %q, want %q", tt.sql, got, tt.want)
		}
	}
}

func TestSQLView_TitleShowsSource(t *testing.T) {
	sv := NewSQLView(theme.DefaultTheme())
	sv.Width, sv.Height = 100, 20
	sv.SetSQL(`SELECT * FROM read_parquet('/data/o''neil.parquet') LIMIT 10 OFFSET 0`)
	if !strings.Contains(sv.View(), "/data/o'neil.parquet") {
		t.Error("Expected the decoded source in the title")
	}
}
