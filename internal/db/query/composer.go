package query

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/filter"
	"github.com/rebeliceyang/parqview/internal/models"
)

// SourceExpr returns the table function that reads the source
func SourceExpr(source string) string {
	return fmt.Sprintf("read_parquet('%s')", escape.SQLString(source))
}

// SchemaSQL describes the result shape of reading the whole file
func SchemaSQL(source string) string {
	return "DESCRIBE SELECT * FROM " + SourceExpr(source)
}

// CountSQL counts every row of the file
func CountSQL(source string) string {
	return "SELECT COUNT(*) AS count FROM " + SourceExpr(source)
}

// FilteredCountSQL counts rows matching the clauses
func FilteredCountSQL(source string, clauses []string) string {
	return joinParts(CountSQL(source), filter.JoinWhere(clauses))
}

// isGlob reports whether source names several files
func isGlob(source string) bool {
	return strings.ContainsAny(source, "*?[")
}

// tiebreakers are the virtual columns that order rows with equal sort keys.
// file_row_number repeats across files of a glob, so the file name comes first.
func tiebreakers(source string) []string {
	if isGlob(source) {
		return []string{"filename", "file_row_number"}
	}
	return []string{"file_row_number"}
}

// orderedSourceExpr reads the source with its tiebreaker columns exposed
func orderedSourceExpr(source string) string {
	opts := make([]string, 0, 2)
	for _, c := range tiebreakers(source) {
		opts = append(opts, c+" = true")
	}
	return fmt.Sprintf("read_parquet('%s', %s)", escape.SQLString(source), strings.Join(opts, ", "))
}

// PageRequest describes one page of rows
type PageRequest struct {
	Source  string
	Columns []string
	Clauses []string
	Sort    models.SortSpec
	Limit   int
	Offset  int64
}

// PageSQL selects one page of rows. A sorted page also orders by the file
// position of each row, so pages over duplicate sort keys neither overlap nor
// skip rows.
func PageSQL(req PageRequest) string {
	sorted := req.Sort.IsSorted()

	cols := "*"
	if len(req.Columns) > 0 {
		quoted := make([]string, len(req.Columns))
		for i, c := range req.Columns {
			quoted[i] = escape.Identifier(c)
		}
		cols = strings.Join(quoted, ", ")
	} else if sorted {
		cols = fmt.Sprintf("* EXCLUDE (%s)", strings.Join(tiebreakers(req.Source), ", "))
	}

	from := SourceExpr(req.Source)
	orderBy := ""
	if sorted {
		from = orderedSourceExpr(req.Source)
		keys := append([]string{fmt.Sprintf("%s %s", escape.Identifier(req.Sort.Column), req.Sort.Direction)}, tiebreakers(req.Source)...)
		orderBy = "ORDER BY " + strings.Join(keys, ", ")
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	return joinParts(
		fmt.Sprintf("SELECT %s FROM %s", cols, from),
		filter.JoinWhere(req.Clauses),
		orderBy,
		fmt.Sprintf("LIMIT %d OFFSET %d", req.Limit, offset),
	)
}

// DistinctCountSQL counts the distinct non-null values of a column
func DistinctCountSQL(source, column string) string {
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS count FROM %s", escape.Identifier(column), SourceExpr(source))
}

// DistinctValuesSQL lists up to limit distinct non-null values of a column in order
func DistinctValuesSQL(source, column string, limit int) string {
	col := escape.Identifier(column)
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s LIMIT %d",
		col, SourceExpr(source), col, col, limit)
}

func joinParts(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
