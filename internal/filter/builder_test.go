package filter

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/parqview/internal/models"
)

func TestBuildClauses_EmptyValuesYieldNothing(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{
		"age":     {Kind: models.KindRange, Type: "INTEGER"},
		"created": {Kind: models.KindDate, Type: "TIMESTAMP"},
		"status":  {Kind: models.KindSelect, Type: "VARCHAR", Values: []string{"a", "b"}},
		"name":    {Kind: models.KindText, Type: "VARCHAR"},
	}
	filters := models.Filters{
		"age":     {Min: "", Max: ""},
		"created": {},
		"status":  {Value: ""},
		"name":    {Value: ""},
	}

	if got := b.BuildClauses(filters, meta); len(got) != 0 {
		t.Errorf("expected no clauses, got %v", got)
	}
	if got := b.BuildWhere(filters, meta); got != "" {
		t.Errorf("expected empty WHERE, got %q", got)
	}
}

func TestBuildClauses_Range(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"age": {Kind: models.KindRange, Type: "INTEGER"}}

	tests := []struct {
		name  string
		value models.FilterValue
		want  []string
	}{
		{"both bounds", models.FilterValue{Min: "18", Max: "65"}, []string{`("age" >= 18 AND "age" <= 65)`}},
		{"min only", models.FilterValue{Min: "18"}, []string{`("age" >= 18)`}},
		{"max only", models.FilterValue{Max: "65.5"}, []string{`("age" <= 65.5)`}},
		{"non numeric min dropped", models.FilterValue{Min: "abc", Max: "10"}, []string{`("age" <= 10)`}},
		{"nothing parses", models.FilterValue{Min: "x", Max: "1; DROP TABLE t"}, nil},
		{"nan rejected", models.FilterValue{Min: "NaN", Max: "Inf"}, nil},
		{"exponent normalized", models.FilterValue{Min: "1e3"}, []string{`("age" >= 1000)`}},
		{"whitespace trimmed", models.FilterValue{Min: " -2 "}, []string{`("age" >= -2)`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.BuildClauses(models.Filters{"age": tt.value}, meta)
			if !equalStrings(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildClauses_RangeMinOnlyHasOneComparison(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"x": {Kind: models.KindRange, Type: "DOUBLE"}}

	got := b.BuildClauses(models.Filters{"x": {Min: "3"}}, meta)
	if len(got) != 1 {
		t.Fatalf("expected 1 clause, got %v", got)
	}
	if n := strings.Count(got[0], ">=") + strings.Count(got[0], "<="); n != 1 {
		t.Errorf("expected exactly one comparison, got %d in %q", n, got[0])
	}
}

func TestBuildClauses_DateOnTimestampIsExclusive(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"created": {Kind: models.KindDate, Type: "TIMESTAMP WITH TIME ZONE"}}

	got := b.BuildClauses(models.Filters{"created": {Min: "2024-01-01", Max: "2024-01-31"}}, meta)
	want := `("created" >= '2024-01-01' AND "created" < '2024-01-31'::DATE + INTERVAL '1 day')`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want %q", got, want)
	}
	if strings.Contains(got[0], "<= '2024-01-31'") {
		t.Error("timestamp upper bound must not be inclusive on the literal max")
	}
}

func TestBuildClauses_DateOnPureDateIsInclusive(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"day": {Kind: models.KindDate, Type: "DATE"}}

	got := b.BuildClauses(models.Filters{"day": {Max: "2024-01-31"}}, meta)
	want := `("day" <= '2024-01-31')`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want %q", got, want)
	}
}

func TestBuildClauses_DateRejectsMalformedBounds(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"day": {Kind: models.KindDate, Type: "DATE"}}

	for _, bad := range []string{"2024-1-5", "01/02/2024", "2024-02-30", "2024-01-01' OR '1'='1", "yesterday"} {
		got := b.BuildClauses(models.Filters{"day": {Min: bad}}, meta)
		if len(got) != 0 {
			t.Errorf("expected %q to be omitted, got %v", bad, got)
		}
	}
}

func TestBuildClauses_Select(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"status": {Kind: models.KindSelect, Type: "VARCHAR"}}

	got := b.BuildClauses(models.Filters{"status": {Value: "it's"}}, meta)
	want := `("status" = 'it''s')`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want %q", got, want)
	}
}

func TestBuildClauses_TextEscapesWildcards(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{"name": {Kind: models.KindText, Type: "VARCHAR"}}

	tests := []struct {
		value string
		want  string
	}{
		{"alice", `(CAST("name" AS VARCHAR) ILIKE '%alice%' ESCAPE '\')`},
		{"100%", `(CAST("name" AS VARCHAR) ILIKE '%100\%%' ESCAPE '\')`},
		{"a_b", `(CAST("name" AS VARCHAR) ILIKE '%a\_b%' ESCAPE '\')`},
		{"O'Brien", `(CAST("name" AS VARCHAR) ILIKE '%O''Brien%' ESCAPE '\')`},
		{`c:\tmp`, `(CAST("name" AS VARCHAR) ILIKE '%c:\\tmp%' ESCAPE '\')`},
	}

	for _, tt := range tests {
		got := b.BuildClauses(models.Filters{"name": {Value: tt.value}}, meta)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("value %q: got %v, want %q", tt.value, got, tt.want)
		}
	}
}

func TestBuildClauses_EscapesColumnNames(t *testing.T) {
	b := NewBuilder()
	column := `evil"; DROP TABLE t; --`
	meta := map[string]models.ColumnMeta{column: {Kind: models.KindSelect}}

	got := b.BuildClauses(models.Filters{column: {Value: "x"}}, meta)
	want := `("evil""; DROP TABLE t; --" = 'x')`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want %q", got, want)
	}
}

func TestBuildClauses_MissingMetaIsText(t *testing.T) {
	b := NewBuilder()

	got := b.BuildClauses(models.Filters{"unknown": {Value: "v"}}, nil)
	if len(got) != 1 || !strings.Contains(got[0], "ILIKE") {
		t.Errorf("expected a text clause, got %v", got)
	}
}

func TestBuildWhere_JoinsInColumnOrder(t *testing.T) {
	b := NewBuilder()
	meta := map[string]models.ColumnMeta{
		"b": {Kind: models.KindSelect},
		"a": {Kind: models.KindRange},
	}
	filters := models.Filters{"b": {Value: "x"}, "a": {Min: "1"}}

	got := b.BuildWhere(filters, meta)
	want := `WHERE ("a" >= 1) AND ("b" = 'x')`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKindForType(t *testing.T) {
	tests := []struct {
		dataType string
		want     models.FilterKind
	}{
		{"INTEGER", models.KindRange},
		{"BIGINT", models.KindRange},
		{"DOUBLE", models.KindRange},
		{"DECIMAL(18,3)", models.KindRange},
		{"UBIGINT", models.KindRange},
		{"INT8", models.KindRange},
		{"INTERVAL", models.KindText},
		{"INTEGER[]", models.KindText},
		{"DATE", models.KindDate},
		{"TIMESTAMP", models.KindDate},
		{"TIMESTAMP WITH TIME ZONE", models.KindDate},
		{"timestamp_ns", models.KindDate},
		{"TIME", models.KindText},
		{"VARCHAR", models.KindText},
		{"BOOLEAN", models.KindText},
	}

	for _, tt := range tests {
		if got := KindForType(tt.dataType); got != tt.want {
			t.Errorf("KindForType(%q) = %q, want %q", tt.dataType, got, tt.want)
		}
	}
}

func TestIsTextType(t *testing.T) {
	for _, yes := range []string{"VARCHAR", "varchar", "TEXT", "ENUM('a', 'b')", "VARCHAR(20)"} {
		if !IsTextType(yes) {
			t.Errorf("expected %q to be text", yes)
		}
	}
	for _, no := range []string{"INTEGER", "BLOB", "STRUCT(a VARCHAR)", "VARCHAR[]"} {
		if IsTextType(no) {
			t.Errorf("expected %q not to be text", no)
		}
	}
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		expr    string
		column  string
		field   models.FilterField
		value   string
		wantErr bool
	}{
		{"name=alice", "name", models.FieldValue, "alice", false},
		{"age>=18", "age", models.FieldMin, "18", false},
		{"age <= 65", "age", models.FieldMax, "65", false},
		{"q=a=b", "q", models.FieldValue, "a=b", false},
		{"noop", "", "", "", true},
		{"=x", "", "", "", true},
	}

	for _, tt := range tests {
		column, update, err := ParseExpr(tt.expr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseExpr(%q) expected error", tt.expr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseExpr(%q) unexpected error: %v", tt.expr, err)
			continue
		}
		if column != tt.column || update.Field != tt.field || update.Value != tt.value {
			t.Errorf("ParseExpr(%q) = %q %+v", tt.expr, column, update)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestValidBound(t *testing.T) {
	tests := []struct {
		kind models.FilterKind
		in   string
		want bool
	}{
		{models.KindRange, "", true},
		{models.KindRange, "  ", true},
		{models.KindRange, "18", true},
		{models.KindRange, "-1.5e3", true},
		{models.KindRange, "abc", false},
		{models.KindRange, "NaN", false},
		{models.KindDate, "2024-02-29", true},
		{models.KindDate, "2023-02-29", false},
		{models.KindDate, "2024/01/01", false},
		{models.KindText, "anything", true},
	}

	for _, tt := range tests {
		if got := ValidBound(tt.kind, tt.in); got != tt.want {
			t.Errorf("ValidBound(%s, %q) = %v, want %v", tt.kind, tt.in, got, tt.want)
		}
	}
}
