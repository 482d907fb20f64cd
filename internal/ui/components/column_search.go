package components

import (
	"strings"

	"github.com/rebeliceyang/parqview/internal/models"
)

// SearchQuery represents a parsed column search
type SearchQuery struct {
	Pattern    string            // The search pattern (after removing prefix/kind)
	Negate     bool              // True if query starts with !
	KindFilter models.FilterKind // Restricts matches to one filter kind
}

// Kind prefix mappings
var kindPrefixes = []struct {
	prefix string
	kind   models.FilterKind
}{
	// Long prefixes first so "date:" is not read as "d:" plus "ate:"
	{"range:", models.KindRange},
	{"date:", models.KindDate},
	{"select:", models.KindSelect},
	{"text:", models.KindText},
	{"r:", models.KindRange},
	{"d:", models.KindDate},
	{"s:", models.KindSelect},
	{"t:", models.KindText},
}

// ParseSearchQuery parses a column search string into structured form
// Examples:
//   - "price" → {Pattern: "price"}
//   - "!id" → {Pattern: "id", Negate: true}
//   - "d:created" → {Pattern: "created", KindFilter: "date"}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	lower := strings.ToLower(query)
	for _, p := range kindPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			q.KindFilter = p.kind
			query = query[len(p.prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs case-insensitive fuzzy subsequence matching and
// returns the rune positions of the matched characters
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	p := []rune(strings.ToLower(pattern))
	tr := []rune(strings.ToLower(target))

	positions := make([]int, 0, len(p))
	pi := 0
	for i := 0; i < len(tr) && pi < len(p); i++ {
		if tr[i] == p[pi] {
			positions = append(positions, i)
			pi++
		}
	}

	if pi == len(p) {
		return true, positions
	}
	return false, nil
}

// FilterColumns returns the indexes of the columns matching query, in
// schema order
func FilterColumns(columns []models.Column, meta map[string]models.ColumnMeta, query SearchQuery) []int {
	var matches []int
	for i, col := range columns {
		kind := models.KindText
		if m, ok := meta[col.Name]; ok && m.Kind != "" {
			kind = m.Kind
		}

		kindMatches := query.KindFilter == "" || kind == query.KindFilter
		patternMatches, _ := FuzzyMatch(query.Pattern, col.Name)

		include := kindMatches && patternMatches
		if query.Negate {
			if query.KindFilter != "" {
				include = kindMatches && !patternMatches
				if query.Pattern == "" {
					include = !kindMatches
				}
			} else {
				include = !patternMatches
			}
		}

		if include {
			matches = append(matches, i)
		}
	}
	return matches
}
