package cell

import (
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/marcboeker/go-duckdb"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "plain", "plain"},
		{"newlines", "a\nb\tc", "a↵b c"},
		{"bool", true, "true"},
		{"int", int64(-42), "-42"},
		{"float", 3.25, "3.25"},
		{"whole float", float64(100), "100"},
		{"large float", 1.5e20, "1.5e+20"},
		{"nan", math.NaN(), "NaN"},
		{"inf", math.Inf(-1), "-Infinity"},
		{"hugeint", big.NewInt(12345678901), "12345678901"},
		{"date", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "2024-01-31"},
		{"timestamp", time.Date(2024, 1, 31, 13, 5, 9, 0, time.UTC), "2024-01-31 13:05:09"},
		{"time", time.Date(1, 1, 1, 8, 30, 0, 0, time.UTC), "08:30:00"},
		{"utf8 bytes", []byte("hello"), "hello"},
		{"binary bytes", []byte{0xff, 0x00, 0x10}, `\xff0010`},
		{"list", []interface{}{int32(1), "two", nil}, `[1,"two",null]`},
		{"struct", map[string]interface{}{"b": 2, "a": "x"}, `{"a":"x","b":2}`},
		{"map", duckdb.Map{int32(1): "one"}, `{"1":"one"}`},
		{"decimal", duckdb.Decimal{Width: 10, Scale: 2, Value: big.NewInt(-1234)}, "-12.34"},
		{"small decimal", duckdb.Decimal{Width: 10, Scale: 3, Value: big.NewInt(5)}, "0.005"},
		{"interval", duckdb.Interval{Months: 1, Days: 2, Micros: 3_000_000}, "1 months 2 days 3s"},
		{"zero interval", duckdb.Interval{}, "0s"},
		{"uuid", duckdb.UUID{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}, "123e4567-e89b-12d3-a456-426614174000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat_LongBinaryIsTruncated(t *testing.T) {
	b := make([]byte, 100)
	b[0] = 0xff
	got := Format(b)
	if !strings.HasSuffix(got, Ellipsis) || len(got) != len(`\x`)+64+len(Ellipsis) {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestPretty(t *testing.T) {
	nested := map[string]interface{}{"tags": []interface{}{"a"}}
	want := "{\n  \"tags\": [\n    \"a\"\n  ]\n}"
	if got := Pretty(nested); got != want {
		t.Errorf("Pretty(nested) = %q", got)
	}

	if got := Pretty(`{"k":1}`); got != "{\n  \"k\": 1\n}" {
		t.Errorf("Pretty(json string) = %q", got)
	}
	if got := Pretty("line one\nline two"); got != "line one\nline two" {
		t.Errorf("plain strings should keep newlines, got %q", got)
	}
	if got := Pretty(nil); got != Null {
		t.Errorf("Pretty(nil) = %q", got)
	}
}

func TestLooksJSON(t *testing.T) {
	for s, want := range map[string]bool{
		`{"a":1}`:  true,
		` [1, 2] `: true,
		`{broken`:  false,
		`"quoted"`: false,
		`42`:       false,
		``:         false,
	} {
		if got := LooksJSON(s); got != want {
			t.Errorf("LooksJSON(%q) = %v", s, got)
		}
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := Truncate("abcdefgh", 5); got != "abcd…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 5); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("日本語テキスト", 6); Width(got) > 6 {
		t.Errorf("Truncate wide = %q (width %d)", got, Width(got))
	}
	if got := Pad("ab", 4); got != "ab  " {
		t.Errorf("Pad = %q", got)
	}
	if got := Pad("abcdef", 4); Width(got) != 4 {
		t.Errorf("Pad long = %q", got)
	}
}
