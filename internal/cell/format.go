// Package cell renders engine values for the table, the row detail pane and
// exports.
package cell

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/mattn/go-runewidth"
)

// Null is how a missing value is shown
const Null = "NULL"

// Ellipsis marks truncated text
const Ellipsis = "…"

var controlReplacer = strings.NewReplacer("\r\n", "↵", "\n", "↵", "\r", "↵", "\t", " ")

// Format renders v on a single line
func Format(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return Null
	case string:
		return controlReplacer.Replace(val)
	case []byte:
		return formatBytes(val)
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case time.Time:
		return formatTime(val)
	case *big.Int:
		return val.String()
	case duckdb.Decimal:
		return formatDecimal(val)
	case duckdb.UUID:
		return uuid.UUID(val).String()
	case *duckdb.UUID:
		if val == nil {
			return Null
		}
		return uuid.UUID(*val).String()
	case duckdb.Interval:
		return formatInterval(val)
	case []interface{}, map[string]interface{}, duckdb.Map:
		out, err := json.Marshal(Plain(val))
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(out)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Pretty renders v for the detail pane. Nested values, and strings holding
// a JSON object or array, are indented.
func Pretty(v interface{}) string {
	switch val := v.(type) {
	case []interface{}, map[string]interface{}, duckdb.Map:
		out, err := json.MarshalIndent(Plain(val), "", "  ")
		if err != nil {
			return Format(v)
		}
		return string(out)
	case string:
		if LooksJSON(val) {
			var parsed interface{}
			if err := json.Unmarshal([]byte(val), &parsed); err == nil {
				if out, err := json.MarshalIndent(parsed, "", "  "); err == nil {
					return string(out)
				}
			}
		}
		return val
	default:
		return Format(v)
	}
}

// LooksJSON reports whether s is a JSON object or array
func LooksJSON(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	if (s[0] != '{' || s[len(s)-1] != '}') && (s[0] != '[' || s[len(s)-1] != ']') {
		return false
	}
	return json.Valid([]byte(s))
}

// Plain converts v into values encoding/json can marshal: map keys become
// strings and engine types become their display text.
func Plain(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val
	case float32:
		return plainFloat(float64(val))
	case float64:
		return plainFloat(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = Plain(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = Plain(e)
		}
		return out
	case duckdb.Map:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[Format(k)] = Plain(e)
		}
		return out
	default:
		return Format(val)
	}
}

// JSON numbers cannot hold NaN or infinities
func plainFloat(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatFloat(f, 64)
	}
	return f
}

// Truncate shortens s to at most width terminal cells
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// Pad truncates or right-pads s to exactly width terminal cells
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// Width returns the terminal cell width of s
func Width(s string) int {
	return runewidth.StringWidth(s)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs != 0 && (abs >= 1e15 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func formatTime(t time.Time) string {
	if t.Year() == 1 && t.YearDay() == 1 {
		// TIME columns arrive on the zero date
		return t.Format("15:04:05.999999")
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05.999999")
}

func formatBytes(b []byte) string {
	if utf8.Valid(b) {
		return controlReplacer.Replace(string(b))
	}
	const max = 32
	hex := fmt.Sprintf("%x", b)
	if len(b) > max {
		hex = fmt.Sprintf("%x", b[:max]) + Ellipsis
	}
	return `\x` + hex
}

func formatDecimal(d duckdb.Decimal) string {
	if d.Value == nil {
		return Null
	}
	digits := new(big.Int).Abs(d.Value).String()
	scale := int(d.Scale)
	if scale > 0 {
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if d.Value.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

func formatInterval(iv duckdb.Interval) string {
	var parts []string
	if iv.Months != 0 {
		parts = append(parts, fmt.Sprintf("%d months", iv.Months))
	}
	if iv.Days != 0 {
		parts = append(parts, fmt.Sprintf("%d days", iv.Days))
	}
	if iv.Micros != 0 || len(parts) == 0 {
		parts = append(parts, (time.Duration(iv.Micros) * time.Microsecond).String())
	}
	return strings.Join(parts, " ")
}

// Keys returns the keys of a row-like map in sorted order
func Keys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
