package metadata

import (
	"context"
	"fmt"

	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/models"
)

// ReadSchema returns the columns of the source, capped at maxColumns, and
// the full column count before the cap
func ReadSchema(ctx context.Context, exec query.Executor, source string, maxColumns int) ([]models.Column, int, error) {
	rows, err := exec.Execute(ctx, query.SchemaSQL(source))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read schema: %w", err)
	}

	total := len(rows)
	if maxColumns > 0 && len(rows) > maxColumns {
		rows = rows[:maxColumns]
	}

	columns := make([]models.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, models.Column{
			Name: toString(row["column_name"]),
			Type: toString(row["column_type"]),
		})
	}

	return columns, total, nil
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
