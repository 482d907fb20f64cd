package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/models"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Builder generates SQL predicates from column filters
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildClauses returns one parenthesized predicate per column with a
// non-empty filter, ordered by column name. Columns without metadata are
// treated as text.
func (b *Builder) BuildClauses(filters models.Filters, meta map[string]models.ColumnMeta) []string {
	var clauses []string
	for _, column := range filters.Active(meta) {
		m, ok := meta[column]
		if !ok {
			m = models.ColumnMeta{Kind: models.KindText}
		}
		if clause := b.buildClause(column, filters[column], m); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// BuildWhere joins the clauses into a WHERE clause, or "" when nothing filters
func (b *Builder) BuildWhere(filters models.Filters, meta map[string]models.ColumnMeta) string {
	return JoinWhere(b.BuildClauses(filters, meta))
}

// JoinWhere prefixes AND-joined clauses with WHERE
func JoinWhere(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

// buildClause builds the predicate for a single column
func (b *Builder) buildClause(column string, value models.FilterValue, meta models.ColumnMeta) string {
	col := escape.Identifier(column)

	switch meta.Kind {
	case models.KindRange:
		return b.rangeClause(col, value)
	case models.KindDate:
		return b.dateClause(col, value, IsTimestampType(meta.Type))
	case models.KindSelect:
		if value.Value == "" {
			return ""
		}
		return fmt.Sprintf("(%s = '%s')", col, escape.SQLString(value.Value))
	default:
		if value.Value == "" {
			return ""
		}
		// quote context first, then pattern metacharacters inside the value
		pattern := escape.LikePattern(escape.SQLString(value.Value))
		return fmt.Sprintf("(CAST(%s AS VARCHAR) ILIKE '%%%s%%' ESCAPE '%s')", col, pattern, escape.LikeEscapeChar)
	}
}

// rangeClause emits only the bounds that parse as finite numbers
func (b *Builder) rangeClause(col string, value models.FilterValue) string {
	var parts []string
	if min, ok := parseNumber(value.Min); ok {
		parts = append(parts, fmt.Sprintf("%s >= %s", col, min))
	}
	if max, ok := parseNumber(value.Max); ok {
		parts = append(parts, fmt.Sprintf("%s <= %s", col, max))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// dateClause emits YYYY-MM-DD bounds. On timestamp columns the upper bound is
// exclusive one day past max so every time of day on max is included.
func (b *Builder) dateClause(col string, value models.FilterValue, timestamp bool) string {
	var parts []string
	if min, ok := parseDate(value.Min); ok {
		parts = append(parts, fmt.Sprintf("%s >= '%s'", col, min))
	}
	if max, ok := parseDate(value.Max); ok {
		if timestamp {
			parts = append(parts, fmt.Sprintf("%s < '%s'::DATE + INTERVAL '1 day'", col, max))
		} else {
			parts = append(parts, fmt.Sprintf("%s <= '%s'", col, max))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// parseNumber returns the canonical text of a finite float, so nothing the
// user typed reaches the query verbatim
func parseNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// parseDate accepts only real calendar dates in YYYY-MM-DD form
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// ValidBound reports whether s is usable as a bound for kind. Blank input is
// valid and means unbounded; anything else that does not parse is skipped
// when building clauses.
func ValidBound(kind models.FilterKind, s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	switch kind {
	case models.KindRange:
		_, ok := parseNumber(s)
		return ok
	case models.KindDate:
		_, ok := parseDate(s)
		return ok
	default:
		return true
	}
}
