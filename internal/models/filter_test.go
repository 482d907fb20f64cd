package models

import "testing"

func TestFilterValue_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value FilterValue
		kind  FilterKind
		want  bool
	}{
		{"empty text", FilterValue{}, KindText, true},
		{"text", FilterValue{Value: "a"}, KindText, false},
		{"empty select", FilterValue{Value: ""}, KindSelect, true},
		{"range both empty", FilterValue{Min: "", Max: ""}, KindRange, true},
		{"range blank", FilterValue{Min: "  ", Max: ""}, KindRange, true},
		{"range min", FilterValue{Min: "1"}, KindRange, false},
		{"date max", FilterValue{Max: "2024-01-01"}, KindDate, false},
		{"range ignores scalar", FilterValue{Value: "x"}, KindRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsEmpty(tt.kind); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_ApplyMergesBounds(t *testing.T) {
	f := Filters{}

	f.Apply("age", KindRange, FilterUpdate{Field: FieldMin, Value: "18"})
	f.Apply("age", KindRange, FilterUpdate{Field: FieldMax, Value: "65"})

	got := f["age"]
	if got.Min != "18" || got.Max != "65" {
		t.Errorf("expected merged bounds 18..65, got %+v", got)
	}

	f.Apply("age", KindRange, FilterUpdate{Field: FieldMin, Value: ""})
	if got := f["age"]; got.Min != "" || got.Max != "65" {
		t.Errorf("expected only max to remain, got %+v", got)
	}

	f.Apply("age", KindRange, FilterUpdate{Field: FieldMax, Value: ""})
	if _, ok := f["age"]; ok {
		t.Error("expected empty range filter to be removed")
	}
}

func TestFilters_ApplyReplacesScalar(t *testing.T) {
	f := Filters{}

	f.Apply("name", KindText, FilterUpdate{Field: FieldValue, Value: "al"})
	f.Apply("name", KindText, FilterUpdate{Field: FieldValue, Value: "bo"})
	if got := f["name"].Value; got != "bo" {
		t.Errorf("expected value 'bo', got %q", got)
	}

	f.Apply("name", KindText, FilterUpdate{Field: FieldValue, Value: ""})
	if _, ok := f["name"]; ok {
		t.Error("expected empty text filter to be removed")
	}
}

func TestFilters_ActiveAndClone(t *testing.T) {
	meta := map[string]ColumnMeta{
		"age":  {Kind: KindRange},
		"name": {Kind: KindText},
	}
	f := Filters{
		"name": {Value: "x"},
		"age":  {Min: "1"},
		"zip":  {Value: ""},
	}

	active := f.Active(meta)
	if len(active) != 2 || active[0] != "age" || active[1] != "name" {
		t.Errorf("expected [age name], got %v", active)
	}

	c := f.Clone()
	c["name"] = FilterValue{Value: "changed"}
	if f["name"].Value != "x" {
		t.Error("Clone shares storage with original")
	}
}

func TestSortSpec_Toggle(t *testing.T) {
	var s SortSpec

	s = s.Toggle("a")
	if s.Column != "a" || s.Direction != SortAsc {
		t.Fatalf("expected a ASC, got %+v", s)
	}
	s = s.Toggle("a")
	if s.Direction != SortDesc {
		t.Fatalf("expected a DESC, got %+v", s)
	}
	s = s.Toggle("a")
	if s.Direction != SortAsc {
		t.Fatalf("expected a ASC again, got %+v", s)
	}

	s = SortSpec{Column: "a", Direction: SortDesc}.Toggle("b")
	if s.Column != "b" || s.Direction != SortAsc {
		t.Errorf("expected new column to reset to ASC, got %+v", s)
	}
	if !s.IsSorted() {
		t.Error("expected IsSorted")
	}
	if (SortSpec{}).IsSorted() {
		t.Error("expected zero SortSpec to be unsorted")
	}
}
