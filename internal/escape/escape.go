// Package escape holds the string transforms used whenever untrusted input
// (file paths, filter values, column names) is placed into SQL or HTML.
//
// None of these functions fail: every input, including nil, has a defined
// output.
package escape

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxNameLength is the display width used by TruncateName when no
// explicit limit is given.
const DefaultMaxNameLength = 30

// LikeEscapeChar is the escape character LikePattern uses. Pattern clauses
// must declare it with ESCAPE '\'.
const LikeEscapeChar = `\`

// Ellipsis is appended by TruncateName.
const Ellipsis = "…"

// htmlReplacer substitutes in a single pass, so an ampersand produced by one
// substitution is never escaped again.
var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// HTML escapes a value for HTML text and attribute contexts.
// nil yields the empty string; other non-string values are stringified first.
func HTML(v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case []byte:
		s = string(val)
	case fmt.Stringer:
		s = val.String()
	case error:
		s = val.Error()
	default:
		s = fmt.Sprint(val)
	}
	return htmlReplacer.Replace(s)
}

// SQLString escapes a value for use inside a single-quoted SQL literal.
func SQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// UnescapeSQLString reverses SQLString.
func UnescapeSQLString(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

// LikePattern escapes the LIKE/ILIKE metacharacters so the value matches
// literally. Backslash goes first; otherwise the backslashes introduced for
// % and _ would be escaped a second time.
func LikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// Identifier returns a delimited SQL identifier.
func Identifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TruncateName shortens a name for display. The result is at most maxLen
// runes long, the last of which is an ellipsis when truncation happened.
// Never use the result to build a query.
func TruncateName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	if utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxLen-1]) + Ellipsis
}
