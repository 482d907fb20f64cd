package models

import "time"

// AppState holds the presentation state of the viewer
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode

	// Column under the horizontal cursor; sort and filter act on it
	ColumnCursor int

	// Status line message, cleared on the next key press
	Status string
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
	DetailMode
	SQLMode
	ConfirmMode
	SchemaMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		ViewMode: NormalMode,
	}
}

// View is a saved combination of sort and filters for a source
type View struct {
	ID         string    `yaml:"id" json:"id"`
	Name       string    `yaml:"name" json:"name"`
	Source     string    `yaml:"source" json:"source"`
	Sort       SortSpec  `yaml:"sort,omitempty" json:"sort,omitempty"`
	Filters    Filters   `yaml:"filters,omitempty" json:"filters,omitempty"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt  time.Time `yaml:"updated_at" json:"updated_at"`
	LastUsed   time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
	UsageCount int       `yaml:"usage_count" json:"usage_count"`
}
