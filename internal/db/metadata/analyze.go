package metadata

import (
	"context"
	"fmt"

	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/filter"
	"github.com/rebeliceyang/parqview/internal/models"
)

// AnalyzeColumns infers filter semantics for every column. Textual columns
// with at most threshold distinct values become select columns carrying
// their sorted values.
func AnalyzeColumns(ctx context.Context, exec query.Executor, source string, columns []models.Column, threshold int) (map[string]models.ColumnMeta, error) {
	meta := make(map[string]models.ColumnMeta, len(columns))

	for _, col := range columns {
		m := models.ColumnMeta{Kind: filter.KindForType(col.Type), Type: col.Type}

		if threshold > 0 && filter.IsTextType(col.Type) {
			values, categorical, err := probeCategorical(ctx, exec, source, col.Name, threshold)
			if err != nil {
				return nil, fmt.Errorf("failed to analyze column %q: %w", col.Name, err)
			}
			if categorical {
				m.Kind = models.KindSelect
				m.Values = values
			}
		}

		meta[col.Name] = m
	}

	return meta, nil
}

func probeCategorical(ctx context.Context, exec query.Executor, source, column string, threshold int) ([]string, bool, error) {
	distinct, err := queryCount(ctx, exec, query.DistinctCountSQL(source, column))
	if err != nil {
		return nil, false, err
	}
	if distinct == 0 || distinct > int64(threshold) {
		return nil, false, nil
	}

	rows, err := exec.Execute(ctx, query.DistinctValuesSQL(source, column, threshold))
	if err != nil {
		return nil, false, err
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, toString(row[column]))
	}
	return values, true, nil
}
