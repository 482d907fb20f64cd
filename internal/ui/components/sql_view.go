package components

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// CloseSQLViewMsg is sent when the SQL view should close
type CloseSQLViewMsg struct{}

// clauseKeywords start a new line when they appear outside parentheses
var clauseKeywords = map[string]bool{
	"FROM":  true,
	"WHERE": true,
	"ORDER": true,
	"LIMIT": true,
}

// SQLView shows the statement behind the current page, highlighted
type SQLView struct {
	Width   int
	Height  int
	Theme   theme.Theme
	Visible bool

	sql     string
	source  string
	lines   []string
	scrollY int

	lexer           chroma.Lexer
	chromaStyle     *chroma.Style
	chromaFormatter chroma.Formatter
}

// NewSQLView creates a new SQL view
func NewSQLView(th theme.Theme) *SQLView {
	sv := &SQLView{
		Width:  80,
		Height: 20,
		Theme:  th,
	}
	sv.initChroma()
	return sv
}

func (sv *SQLView) initChroma() {
	sv.lexer = lexers.Get("sql")
	if sv.lexer == nil {
		sv.lexer = lexers.Fallback
	}

	sv.chromaStyle = styles.Get("monokai")
	if sv.chromaStyle == nil {
		sv.chromaStyle = styles.Fallback
	}

	sv.chromaFormatter = formatters.Get("terminal256")
	if sv.chromaFormatter == nil {
		sv.chromaFormatter = formatters.Fallback
	}
}

// SetSQL sets the statement to display
func (sv *SQLView) SetSQL(sql string) {
	sv.sql = sql
	sv.source = SourceOf(sv.lexer, sql)
	sv.lines = FormatSQL(sv.lexer, sql)
	sv.scrollY = 0
}

// SQL returns the raw statement
func (sv *SQLView) SQL() string {
	return sv.sql
}

// Lines returns the laid out statement
func (sv *SQLView) Lines() []string {
	return sv.lines
}

// SourceOf returns the decoded path passed to read_parquet in sql, or "" if
// there is none
func SourceOf(lexer chroma.Lexer, sql string) string {
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return ""
	}

	seen := false
	var literal strings.Builder
	for _, tok := range it.Tokens() {
		if !seen {
			seen = strings.EqualFold(tok.Value, "read_parquet")
			continue
		}
		if tok.Type.InCategory(chroma.LiteralString) {
			literal.WriteString(tok.Value)
			continue
		}
		if literal.Len() > 0 {
			break
		}
	}

	quoted := literal.String()
	if len(quoted) < 2 || quoted[0] != '\'' || quoted[len(quoted)-1] != '\'' {
		return ""
	}
	return escape.UnescapeSQLString(quoted[1 : len(quoted)-1])
}

// FormatSQL breaks a one-line statement into clause lines. Tokens come from
// lexer so keywords inside string literals are left alone.
func FormatSQL(lexer chroma.Lexer, sql string) []string {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return []string{sql}
	}

	var lines []string
	var current strings.Builder
	depth := 0
	breakLine := func(indent string) {
		if line := strings.TrimRight(current.String(), " \t"); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
		current.WriteString(indent)
	}

	for _, tok := range it.Tokens() {
		literal := tok.Type.InCategory(chroma.LiteralString) || tok.Type.InCategory(chroma.Comment)
		if !literal {
			depth += strings.Count(tok.Value, "(") - strings.Count(tok.Value, ")")
		}

		word := strings.ToUpper(tok.Value)
		if !literal && depth == 0 {
			switch {
			case clauseKeywords[word]:
				breakLine("")
			case word == "AND" || word == "OR":
				breakLine("  ")
			}
		}

		// drop whitespace at the start of a line
		if strings.TrimSpace(current.String()) == "" && strings.TrimSpace(tok.Value) == "" {
			continue
		}
		current.WriteString(strings.ReplaceAll(tok.Value, "\n", " "))
	}
	breakLine("")
	return lines
}

func (sv *SQLView) highlight(line string) string {
	if line == "" {
		return ""
	}

	it, err := chroma.Coalesce(sv.lexer).Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := sv.chromaFormatter.Format(&buf, sv.chromaStyle, it); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (sv *SQLView) contentHeight() int {
	// border, title, separator, status
	h := sv.Height - 2 - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (sv *SQLView) maxScroll() int {
	m := len(sv.lines) - sv.contentHeight()
	if m < 0 {
		return 0
	}
	return m
}

// Copy copies the raw statement to the clipboard
func (sv *SQLView) Copy() error {
	if sv.sql == "" {
		return fmt.Errorf("no statement to copy")
	}
	return writeClipboard(sv.sql)
}

// Update handles keyboard input
func (sv *SQLView) Update(msg tea.KeyMsg) (*SQLView, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		sv.Visible = false
		return sv, func() tea.Msg { return CloseSQLViewMsg{} }
	case "j", "down":
		if sv.scrollY < sv.maxScroll() {
			sv.scrollY++
		}
	case "k", "up":
		if sv.scrollY > 0 {
			sv.scrollY--
		}
	case "g", "home":
		sv.scrollY = 0
	case "G", "end":
		sv.scrollY = sv.maxScroll()
	}
	return sv, nil
}

// View renders the SQL view
func (sv *SQLView) View() string {
	if sv.Width <= 0 || sv.Height <= 0 {
		return ""
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(sv.Theme.BorderFocused)

	width := sv.Width - border.GetHorizontalFrameSize()
	if width < 20 {
		width = 20
	}

	lineNumWidth := len(fmt.Sprintf("%d", len(sv.lines)))
	numStyle := lipgloss.NewStyle().Foreground(sv.Theme.Metadata)
	sepStyle := lipgloss.NewStyle().Foreground(sv.Theme.Border)

	heading := "Page query"
	if sv.source != "" {
		heading = runewidth.Truncate(heading+" · "+sv.source, width, "…")
	}
	title := lipgloss.NewStyle().Foreground(sv.Theme.Info).Bold(true).Render(heading)
	parts := []string{title, sepStyle.Render(strings.Repeat("─", width))}

	if len(sv.lines) == 0 {
		parts = append(parts, numStyle.Italic(true).Render("No statement yet"))
	}

	end := min(sv.scrollY+sv.contentHeight(), len(sv.lines))
	for i := sv.scrollY; i < end; i++ {
		num := numStyle.Render(fmt.Sprintf("%*d", lineNumWidth, i+1))
		line := sv.lines[i]
		avail := width - lineNumWidth - 3
		if runewidth.StringWidth(line) > avail {
			line = runewidth.Truncate(line, avail, "…")
		}
		parts = append(parts, num+sepStyle.Render(" │ ")+sv.highlight(line))
	}

	status := lipgloss.NewStyle().Foreground(sv.Theme.Metadata).Italic(true).
		Render("j/k: scroll │ y: copy │ Esc: close")
	parts = append(parts, status)

	return border.Width(width).Render(strings.Join(parts, "\n"))
}
