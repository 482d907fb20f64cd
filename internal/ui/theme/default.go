package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),
		Metadata:      lipgloss.Color("245"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TableHeader:      lipgloss.Color("105"),
		TableRowEven:     lipgloss.Color("235"),
		TableRowOdd:      lipgloss.Color("236"),
		TableRowSelected: lipgloss.Color("25"),
		ColumnCursor:     lipgloss.Color("62"),
		SortIndicator:    lipgloss.Color("220"),
		FilterActive:     lipgloss.Color("42"),
		Null:             lipgloss.Color("244"),

		KindRange:  lipgloss.Color("150"),
		KindDate:   lipgloss.Color("117"),
		KindSelect: lipgloss.Color("180"),
		KindText:   lipgloss.Color("252"),
	}
}
