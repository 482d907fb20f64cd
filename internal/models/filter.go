package models

import (
	"sort"
	"strings"
)

// FilterKind classifies how a column is filtered
type FilterKind string

const (
	KindRange  FilterKind = "range"  // numeric min/max
	KindDate   FilterKind = "date"   // YYYY-MM-DD min/max
	KindSelect FilterKind = "select" // exact match against a small set of values
	KindText   FilterKind = "text"   // case-insensitive substring
)

// IsBounded reports whether filter values for this kind use the min/max shape
func (k FilterKind) IsBounded() bool {
	return k == KindRange || k == KindDate
}

// ColumnMeta describes the filter semantics inferred for a column
type ColumnMeta struct {
	Kind FilterKind
	Type string // engine type tag, needed for date upper-bound handling

	// Values holds the sorted distinct values of a select column
	Values []string
}

// FilterValue is a raw, unescaped filter as typed by the user.
// Scalar kinds use Value; range and date use Min and Max.
type FilterValue struct {
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
	Min   string `yaml:"min,omitempty" json:"min,omitempty"`
	Max   string `yaml:"max,omitempty" json:"max,omitempty"`
}

// IsEmpty reports whether the value filters nothing for the given kind
func (v FilterValue) IsEmpty(kind FilterKind) bool {
	if kind.IsBounded() {
		return strings.TrimSpace(v.Min) == "" && strings.TrimSpace(v.Max) == ""
	}
	return v.Value == ""
}

// FilterField selects which part of a FilterValue an update targets
type FilterField string

const (
	FieldValue FilterField = "value"
	FieldMin   FilterField = "min"
	FieldMax   FilterField = "max"
)

// FilterUpdate is a single edit to one column's filter
type FilterUpdate struct {
	Field FilterField
	Value string
}

// Filters maps column name to its filter. A missing key means no filter.
type Filters map[string]FilterValue

// Clone returns an independent copy
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Apply merges an update into the filter for column. Bounded kinds merge
// into the min/max pair; scalar kinds are replaced wholesale. Entries that
// become empty are removed.
func (f Filters) Apply(column string, kind FilterKind, update FilterUpdate) {
	current := f[column]
	if kind.IsBounded() {
		switch update.Field {
		case FieldMin:
			current.Min = update.Value
		case FieldMax:
			current.Max = update.Value
		default:
			// a scalar edit on a bounded column sets both ends
			current.Min = update.Value
			current.Max = update.Value
		}
		current.Value = ""
	} else {
		current = FilterValue{Value: update.Value}
	}

	if current.IsEmpty(kind) {
		delete(f, column)
		return
	}
	f[column] = current
}

// Active returns the sorted names of columns with a non-empty filter
func (f Filters) Active(meta map[string]ColumnMeta) []string {
	var names []string
	for name, v := range f {
		kind := KindText
		if m, ok := meta[name]; ok {
			kind = m.Kind
		}
		if !v.IsEmpty(kind) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
