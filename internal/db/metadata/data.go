package metadata

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/models"
)

// CountRows counts every row of the source
func CountRows(ctx context.Context, exec query.Executor, source string) (int64, error) {
	count, err := queryCount(ctx, exec, query.CountSQL(source))
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// CountFiltered counts the rows matching clauses
func CountFiltered(ctx context.Context, exec query.Executor, source string, clauses []string) (int64, error) {
	count, err := queryCount(ctx, exec, query.FilteredCountSQL(source, clauses))
	if err != nil {
		return 0, fmt.Errorf("failed to count filtered rows: %w", err)
	}
	return count, nil
}

// FetchPage fetches one page of rows
func FetchPage(ctx context.Context, exec query.Executor, req query.PageRequest) ([]models.Row, error) {
	rows, err := exec.Execute(ctx, query.PageSQL(req))
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}

	page := make([]models.Row, len(rows))
	for i, r := range rows {
		page[i] = models.Row(r)
	}
	return page, nil
}

func queryCount(ctx context.Context, exec query.Executor, sql string) (int64, error) {
	rows, err := exec.Execute(ctx, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no rows returned")
	}
	return toInt64(rows[0]["count"])
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, fmt.Errorf("count %s overflows int64", n)
		}
		return n.Int64(), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, fmt.Errorf("count is NULL")
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
