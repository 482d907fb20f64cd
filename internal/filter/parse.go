package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/parqview/internal/models"
)

// ParseExpr parses a command-line filter of the form col=value, col>=min or
// col<=max into a column and an update. The first '=' splits the expression.
func ParseExpr(expr string) (string, models.FilterUpdate, error) {
	i := strings.Index(expr, "=")
	if i < 0 {
		return "", models.FilterUpdate{}, fmt.Errorf("filter %q must look like col=value, col>=min or col<=max", expr)
	}

	field := models.FieldValue
	end := i
	if i > 0 {
		switch expr[i-1] {
		case '>':
			field, end = models.FieldMin, i-1
		case '<':
			field, end = models.FieldMax, i-1
		}
	}

	column := strings.TrimSpace(expr[:end])
	if column == "" {
		return "", models.FilterUpdate{}, fmt.Errorf("filter %q has no column", expr)
	}
	return column, models.FilterUpdate{Field: field, Value: strings.TrimSpace(expr[i+1:])}, nil
}
