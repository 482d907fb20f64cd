package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rebeliceyang/parqview/internal/cell"
	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/models"
)

// Format is an export file format
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	HTML Format = "html"
)

// ParseFormat accepts a format name, case-insensitively
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case CSV, JSON, HTML:
		return f, nil
	case "htm":
		return HTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// FormatForPath picks the format from the file extension
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer export format from %q", path)
	}
	return ParseFormat(ext)
}

// Table is what gets exported
type Table struct {
	Title   string
	Columns []models.Column
	Rows    []models.Row
}

// ToFile exports table to path
func ToFile(path string, format Format, table Table) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", format, err)
	}

	w := bufio.NewWriter(file)
	if err := Write(w, format, table); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return file.Close()
}

// Write exports table to w
func Write(w io.Writer, format Format, table Table) error {
	switch format {
	case CSV:
		return writeCSV(w, table)
	case JSON:
		return writeJSON(w, table)
	case HTML:
		return writeHTML(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)

	header := models.ColumnNames(table.Columns)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range table.Rows {
		for i, name := range header {
			v := row[name]
			if v == nil {
				// CSV has no NULL; leave the field empty
				record[i] = ""
				continue
			}
			if s, ok := v.(string); ok {
				record[i] = s
				continue
			}
			record[i] = cell.Format(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeJSON writes an array of objects keeping the column order
func writeJSON(w io.Writer, table Table) error {
	names := models.ColumnNames(table.Columns)
	keys := make([][]byte, len(names))
	for i, name := range names {
		k, err := json.Marshal(name)
		if err != nil {
			return fmt.Errorf("failed to marshal column name: %w", err)
		}
		keys[i] = k
	}

	var b strings.Builder
	b.WriteString("[")
	for r, row := range table.Rows {
		if r > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  {")
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			v, err := json.Marshal(cell.Plain(row[name]))
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", name, err)
			}
			b.Write(keys[i])
			b.WriteString(": ")
			b.Write(v)
		}
		b.WriteString("}")
	}
	if len(table.Rows) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("]\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func writeHTML(w io.Writer, table Table) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escape.HTML(table.Title))
	b.WriteString("<style>table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:2px 6px}td.null{color:#999}</style>\n")
	b.WriteString("</head>\n<body>\n")
	if table.Title != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", escape.HTML(table.Title))
	}

	b.WriteString("<table>\n<thead><tr>")
	for _, col := range table.Columns {
		fmt.Fprintf(&b, `<th title="%s">%s</th>`, escape.HTML(col.Type), escape.HTML(col.Name))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")

	for _, row := range table.Rows {
		b.WriteString("<tr>")
		for _, col := range table.Columns {
			v := row[col.Name]
			if v == nil {
				fmt.Fprintf(&b, `<td class="null">%s</td>`, cell.Null)
				continue
			}
			fmt.Fprintf(&b, "<td>%s</td>", escape.HTML(cell.Format(v)))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n</body>\n</html>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}
