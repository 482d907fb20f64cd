package models

// SortDirection is the ORDER BY direction; empty means unsorted
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortSpec is the current ordering of the result set
type SortSpec struct {
	Column    string        `yaml:"column,omitempty" json:"column,omitempty"`
	Direction SortDirection `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// IsSorted reports whether an ORDER BY applies
func (s SortSpec) IsSorted() bool {
	return s.Column != "" && s.Direction != SortNone
}

// Toggle returns the spec after the user sorts by column: the same column
// flips direction, a different column starts ascending.
func (s SortSpec) Toggle(column string) SortSpec {
	if s.Column == column && s.Direction == SortAsc {
		return SortSpec{Column: column, Direction: SortDesc}
	}
	if s.Column == column && s.Direction == SortDesc {
		return SortSpec{Column: column, Direction: SortAsc}
	}
	return SortSpec{Column: column, Direction: SortAsc}
}
