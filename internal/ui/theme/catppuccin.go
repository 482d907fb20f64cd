package theme

import "github.com/charmbracelet/lipgloss"

// CatppuccinMochaTheme returns the Catppuccin Mocha theme
// Based on: https://github.com/catppuccin/catppuccin
func CatppuccinMochaTheme() Theme {
	return Theme{
		Name: "catppuccin-mocha",

		Background: lipgloss.Color("#1e1e2e"), // Base
		Foreground: lipgloss.Color("#cdd6f4"), // Text

		Border:        lipgloss.Color("#45475a"), // Surface1
		BorderFocused: lipgloss.Color("#89b4fa"), // Blue
		Selection:     lipgloss.Color("#313244"), // Surface0
		Cursor:        lipgloss.Color("#f5e0dc"), // Rosewater
		Metadata:      lipgloss.Color("#6c7086"), // Overlay0

		Success: lipgloss.Color("#a6e3a1"), // Green
		Warning: lipgloss.Color("#f9e2af"), // Yellow
		Error:   lipgloss.Color("#f38ba8"), // Red
		Info:    lipgloss.Color("#89dceb"), // Sky

		TableHeader:      lipgloss.Color("#89b4fa"), // Blue
		TableRowEven:     lipgloss.Color("#1e1e2e"), // Base
		TableRowOdd:      lipgloss.Color("#181825"), // Mantle
		TableRowSelected: lipgloss.Color("#313244"), // Surface0
		ColumnCursor:     lipgloss.Color("#b4befe"), // Lavender
		SortIndicator:    lipgloss.Color("#f9e2af"), // Yellow
		FilterActive:     lipgloss.Color("#a6e3a1"), // Green
		Null:             lipgloss.Color("#6c7086"), // Overlay0

		KindRange:  lipgloss.Color("#fab387"), // Peach
		KindDate:   lipgloss.Color("#89dceb"), // Sky
		KindSelect: lipgloss.Color("#cba6f7"), // Mauve
		KindText:   lipgloss.Color("#a6adc8"), // Subtext0
	}
}
