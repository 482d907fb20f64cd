package main

import (
	"testing"

	"github.com/rebeliceyang/parqview/internal/models"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"--filter", "age>=18", "-f", "age<=65", "--sort", "name:desc", "-o", "out.csv", "data.parquet"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if o.source != "data.parquet" || o.exportPath != "out.csv" || o.sort != "name:desc" {
		t.Errorf("Unexpected options %+v", o)
	}
	if len(o.filters) != 2 {
		t.Errorf("Expected 2 filters, got %v", o.filters)
	}

	if _, err := parseFlags(nil); err == nil {
		t.Error("Expected an error without a source")
	}
	if _, err := parseFlags([]string{"a.parquet", "b.parquet"}); err == nil {
		t.Error("Expected an error with two sources")
	}
	if o, err := parseFlags([]string{"--history", "5"}); err != nil || o.history != 5 {
		t.Errorf("Expected --history alone to be accepted, got %+v, %v", o, err)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    models.SortSpec
		wantErr bool
	}{
		{"", models.SortSpec{}, false},
		{"name", models.SortSpec{Column: "name", Direction: models.SortAsc}, false},
		{"name:DESC", models.SortSpec{Column: "name", Direction: models.SortDesc}, false},
		{"a:b:asc", models.SortSpec{Column: "a:b", Direction: models.SortAsc}, false},
		{"name:up", models.SortSpec{}, true},
		{":desc", models.SortSpec{}, true},
	}
	for _, tt := range tests {
		got, err := parseSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBuildFilters(t *testing.T) {
	meta := map[string]models.ColumnMeta{"age": {Kind: models.KindRange}}

	filters, err := buildFilters([]string{"age>=18", "age<=65", "name=bob"}, meta)
	if err != nil {
		t.Fatalf("buildFilters failed: %v", err)
	}
	if got := filters["age"]; got.Min != "18" || got.Max != "65" {
		t.Errorf("Expected merged range, got %+v", got)
	}
	if got := filters["name"]; got.Value != "bob" {
		t.Errorf("Expected text filter, got %+v", got)
	}

	if _, err := buildFilters([]string{"nope"}, meta); err == nil {
		t.Error("Expected an error for an expression without '='")
	}
}
