package filter

import (
	"regexp"
	"strings"

	"github.com/rebeliceyang/parqview/internal/models"
)

var numericPrefixes = []string{
	"TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
	"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
	"FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC",
}

// INT, INT4, INT8 and friends; a plain INT prefix would also match INTERVAL
var intAlias = regexp.MustCompile(`^INT\d*$`)

var textTypes = []string{"VARCHAR", "TEXT", "STRING", "CHAR", "BPCHAR"}

func normalizeType(dataType string) string {
	return strings.ToUpper(strings.TrimSpace(dataType))
}

// IsNumericType reports whether an engine type tag is a number
func IsNumericType(dataType string) bool {
	t := normalizeType(dataType)
	if strings.HasSuffix(t, "[]") {
		return false
	}
	if intAlias.MatchString(t) {
		return true
	}
	for _, p := range numericPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// IsTimestampType reports whether a type carries a time of day
func IsTimestampType(dataType string) bool {
	t := normalizeType(dataType)
	return strings.HasPrefix(t, "TIMESTAMP") || strings.HasPrefix(t, "DATETIME")
}

// IsTemporalType reports whether a type can be filtered by calendar date
func IsTemporalType(dataType string) bool {
	t := normalizeType(dataType)
	return t == "DATE" || IsTimestampType(t)
}

// IsTextType reports whether a type is textual and may be categorical
func IsTextType(dataType string) bool {
	t := normalizeType(dataType)
	if strings.HasPrefix(t, "ENUM") {
		return true
	}
	for _, tt := range textTypes {
		if t == tt || strings.HasPrefix(t, tt+"(") {
			return true
		}
	}
	return false
}

// KindForType returns the filter kind implied by the type alone. Text
// columns come back as KindText; whether they are really categorical needs
// a distinct-count probe.
func KindForType(dataType string) models.FilterKind {
	switch {
	case IsNumericType(dataType):
		return models.KindRange
	case IsTemporalType(dataType):
		return models.KindDate
	default:
		return models.KindText
	}
}
