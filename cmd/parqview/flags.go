package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/rebeliceyang/parqview/internal/filter"
	"github.com/rebeliceyang/parqview/internal/models"
)

// options are the parsed command-line flags
type options struct {
	configFile string
	exportPath string
	format     string
	filters    []string
	sort       string
	history    int
	logLevel   string
	showSQL    bool
	source     string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("parqview", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parqview [flags] <file.parquet | dir | glob | URL | ->\n\n")
		fs.PrintDefaults()
	}
	fs.StringVarP(&o.configFile, "config", "c", "", "config file (default <user config dir>/parqview/config.yaml)")
	fs.StringVarP(&o.exportPath, "export", "o", "", "export the matching rows to this file and exit")
	fs.StringVar(&o.format, "format", "", "export format: csv, json or html (default from the file extension)")
	fs.StringArrayVarP(&o.filters, "filter", "f", nil, "filter as col=value, col>=min or col<=max (repeatable)")
	fs.StringVarP(&o.sort, "sort", "s", "", "sort as col or col:desc")
	fs.IntVar(&o.history, "history", 0, "print the N most recent executed statements and exit")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&o.showSQL, "sql", false, "print the query of the exported page (with --export)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch fs.NArg() {
	case 0:
		if o.history == 0 {
			return o, fmt.Errorf("no source given")
		}
	case 1:
		o.source = fs.Arg(0)
	default:
		return o, fmt.Errorf("expected one source, got %d", fs.NArg())
	}
	if o.history < 0 {
		return o, fmt.Errorf("--history must be positive")
	}
	return o, nil
}

// parseSort reads col or col:asc / col:desc
func parseSort(s string) (models.SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.SortSpec{}, nil
	}

	column, dir := s, "asc"
	if i := strings.LastIndex(s, ":"); i >= 0 {
		column, dir = s[:i], strings.ToLower(s[i+1:])
	}
	if column == "" {
		return models.SortSpec{}, fmt.Errorf("sort %q has no column", s)
	}

	switch dir {
	case "asc":
		return models.SortSpec{Column: column, Direction: models.SortAsc}, nil
	case "desc":
		return models.SortSpec{Column: column, Direction: models.SortDesc}, nil
	default:
		return models.SortSpec{}, fmt.Errorf("sort direction must be asc or desc, got %q", dir)
	}
}

// buildFilters merges filter expressions using the filter kind of each
// column, so col>=1 and col<=9 become one range
func buildFilters(exprs []string, meta map[string]models.ColumnMeta) (models.Filters, error) {
	filters := models.Filters{}
	for _, expr := range exprs {
		column, update, err := filter.ParseExpr(expr)
		if err != nil {
			return nil, err
		}
		kind := models.KindText
		if m, ok := meta[column]; ok && m.Kind != "" {
			kind = m.Kind
		}
		filters.Apply(column, kind, update)
	}
	return filters, nil
}
