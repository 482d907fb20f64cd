package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/parqview/internal/cell"
	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// PreviewPane shows every column of one row with full, pretty-printed values
type PreviewPane struct {
	Width  int
	Height int
	Title  string

	Visible bool

	columns []models.Column
	row     models.Row
	focus   int // column the copy keys act on

	// Scrolling
	scrollY      int
	contentLines []string
	fieldStart   []int // first content line of each column

	Theme theme.Theme
	style lipgloss.Style
}

// NewPreviewPane creates a new preview pane
func NewPreviewPane(th theme.Theme) *PreviewPane {
	return &PreviewPane{
		Width:  80,
		Height: 20,
		Theme:  th,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.BorderFocused).
			Padding(0, 1),
	}
}

// SetRow sets the row to display and the column to focus
func (p *PreviewPane) SetRow(title string, columns []models.Column, row models.Row, focus int) {
	p.Title = title
	p.columns = columns
	p.row = row
	p.focus = focus
	p.contentLines = nil
	p.formatContent()
	p.scrollToFocus()
}

func (p *PreviewPane) contentWidth() int {
	w := p.Width - p.style.GetHorizontalFrameSize()
	if w < 10 {
		w = 10
	}
	return w
}

func (p *PreviewPane) visibleLines() int {
	// header and footer
	n := p.Height - p.style.GetVerticalFrameSize() - 2
	if n < 1 {
		n = 1
	}
	return n
}

// formatContent lays out "name (type)" headers followed by indented values
func (p *PreviewPane) formatContent() {
	width := p.contentWidth()
	p.contentLines = p.contentLines[:0]
	p.fieldStart = make([]int, len(p.columns))

	for i, col := range p.columns {
		p.fieldStart[i] = len(p.contentLines)
		p.contentLines = append(p.contentLines, fmt.Sprintf("%s (%s)", col.Name, col.Type))
		for _, line := range wrapText(cell.Pretty(p.row[col.Name]), width-2) {
			p.contentLines = append(p.contentLines, "  "+line)
		}
	}
}

// wrapText wraps text to fit within maxWidth
func wrapText(text string, maxWidth int) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}

		var current strings.Builder
		currentWidth := 0
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if currentWidth+rw > maxWidth {
				result = append(result, current.String())
				current.Reset()
				currentWidth = 0
			}
			current.WriteRune(r)
			currentWidth += rw
		}
		if current.Len() > 0 {
			result = append(result, current.String())
		}
	}
	return result
}

func (p *PreviewPane) maxScroll() int {
	m := len(p.contentLines) - p.visibleLines()
	if m < 0 {
		return 0
	}
	return m
}

func (p *PreviewPane) scrollToFocus() {
	if p.focus < 0 || p.focus >= len(p.fieldStart) {
		p.scrollY = 0
		return
	}
	p.scrollY = min(p.fieldStart[p.focus], p.maxScroll())
}

// ScrollUp scrolls content up
func (p *PreviewPane) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls content down
func (p *PreviewPane) ScrollDown() {
	if p.scrollY < p.maxScroll() {
		p.scrollY++
	}
}

// NextField moves the copy focus to the next or previous column
func (p *PreviewPane) NextField(delta int) {
	if len(p.columns) == 0 {
		return
	}
	p.focus = (p.focus + delta + len(p.columns)) % len(p.columns)
	p.scrollToFocus()
}

// FocusedColumn returns the column the copy keys act on
func (p *PreviewPane) FocusedColumn() (models.Column, bool) {
	if p.focus < 0 || p.focus >= len(p.columns) {
		return models.Column{}, false
	}
	return p.columns[p.focus], true
}

// CopyValue copies the focused value to the clipboard
func (p *PreviewPane) CopyValue() error {
	col, ok := p.FocusedColumn()
	if !ok {
		return fmt.Errorf("no column selected")
	}
	return writeClipboard(cell.Pretty(p.row[col.Name]))
}

// RowJSON renders the row as a JSON object in column order
func (p *PreviewPane) RowJSON() (string, error) {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range p.columns {
		if i > 0 {
			b.WriteString(",")
		}
		key, err := json.Marshal(col.Name)
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(cell.Plain(p.row[col.Name]))
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", col.Name, err)
		}
		b.Write(key)
		b.WriteString(":")
		b.Write(val)
	}
	b.WriteString("}")
	return b.String(), nil
}

// CopyRow copies the whole row as JSON
func (p *PreviewPane) CopyRow() error {
	text, err := p.RowJSON()
	if err != nil {
		return err
	}
	return writeClipboard(text)
}

// View renders the preview pane
func (p *PreviewPane) View() string {
	if !p.Visible {
		return ""
	}

	contentWidth := p.contentWidth()

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Info).
		Bold(true)

	header := "Row"
	if p.Title != "" {
		header = "Row " + p.Title
	}
	header = titleStyle.Render(runewidth.Truncate(header, contentWidth, "…"))

	start := p.scrollY
	end := start + p.visibleLines()
	if end > len(p.contentLines) {
		end = len(p.contentLines)
	}

	focusStart, focusEnd := -1, -1
	if p.focus >= 0 && p.focus < len(p.fieldStart) {
		focusStart = p.fieldStart[p.focus]
		focusEnd = len(p.contentLines)
		if p.focus+1 < len(p.fieldStart) {
			focusEnd = p.fieldStart[p.focus+1]
		}
	}

	nameStyle := lipgloss.NewStyle().Foreground(p.Theme.TableHeader).Bold(true)
	focusStyle := nameStyle.Reverse(true)
	valueStyle := lipgloss.NewStyle().Foreground(p.Theme.Foreground)

	parts := []string{header}
	for i := start; i < end; i++ {
		line := runewidth.Truncate(p.contentLines[i], contentWidth, "…")
		isName := false
		for _, s := range p.fieldStart {
			if s == i {
				isName = true
				break
			}
		}
		switch {
		case isName && i == focusStart:
			line = focusStyle.Render(line)
		case isName:
			line = nameStyle.Render(line)
		case i > focusStart && i < focusEnd:
			line = valueStyle.Bold(true).Render(line)
		default:
			line = valueStyle.Render(line)
		}
		parts = append(parts, line)
	}

	helpParts := []string{}
	if p.maxScroll() > 0 {
		helpParts = append(helpParts, "↑↓: Scroll")
	}
	helpParts = append(helpParts, "Tab: Field", "y: Copy value", "Y: Copy row", "Esc: Close")
	helpText := lipgloss.NewStyle().Foreground(p.Theme.Metadata).Italic(true).Render(strings.Join(helpParts, " │ "))
	parts = append(parts, helpText)

	innerHeight := p.Height - p.style.GetVerticalFrameSize()
	if innerHeight < 3 {
		innerHeight = 3
	}

	return p.style.
		Width(p.Width - p.style.GetHorizontalFrameSize()).
		Height(innerHeight).
		MaxHeight(innerHeight + p.style.GetVerticalFrameSize()).
		Render(strings.Join(parts, "\n"))
}
