package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/parqview/internal/models"
)

func testTable() Table {
	return Table{
		Title: "people <2024>.parquet",
		Columns: []models.Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "VARCHAR"},
			{Name: "created", Type: "TIMESTAMP"},
			{Name: "tags", Type: "VARCHAR[]"},
		},
		Rows: []models.Row{
			{
				"id":      int32(1),
				"name":    `Smith, "Jo" <script>`,
				"created": time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
				"tags":    []interface{}{"a", "b"},
			},
			{
				"id":      int32(2),
				"name":    nil,
				"created": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				"tags":    nil,
			},
		},
	}
}

func TestToFile_CSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "test.csv")

	if err := ToFile(csvPath, CSV, testTable()); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}

	info, err := os.Stat(csvPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expectedHeader := []string{"id", "name", "created", "tags"}
	if !slicesEqual(records[0], expectedHeader) {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", expectedHeader, records[0])
	}

	row1 := records[1]
	if row1[1] != `Smith, "Jo" <script>` {
		t.Errorf("Expected name to round-trip, got '%s'", row1[1])
	}
	if row1[2] != "2024-01-01 12:00:00" {
		t.Errorf("Expected timestamp, got '%s'", row1[2])
	}
	if row1[3] != `["a","b"]` {
		t.Errorf("Expected list as JSON, got '%s'", row1[3])
	}
	if records[2][1] != "" {
		t.Errorf("Expected NULL as empty field, got '%s'", records[2][1])
	}
}

func TestWrite_JSONKeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, testTable()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v\n%s", err, buf.String())
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(parsed))
	}
	if parsed[0]["id"] != float64(1) || parsed[1]["name"] != nil {
		t.Errorf("unexpected rows %v", parsed)
	}

	first := strings.SplitN(buf.String(), "\n", 3)[1]
	if strings.Index(first, `"id"`) > strings.Index(first, `"tags"`) {
		t.Errorf("columns out of order: %s", first)
	}
}

func TestWrite_HTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, HTML, testTable()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Error("cell content was not escaped")
	}
	if !strings.Contains(out, "Smith, &quot;Jo&quot; &lt;script&gt;") {
		t.Error("expected escaped cell")
	}
	if !strings.Contains(out, "<title>people &lt;2024&gt;.parquet</title>") {
		t.Error("expected escaped title")
	}
	if !strings.Contains(out, `<td class="null">NULL</td>`) {
		t.Error("expected NULL cell")
	}
}

func TestExportEmptyTable(t *testing.T) {
	tmpDir := t.TempDir()
	table := Table{Columns: []models.Column{{Name: "id", Type: "INTEGER"}}}

	csvPath := filepath.Join(tmpDir, "empty.csv")
	if err := ToFile(csvPath, CSV, table); err != nil {
		t.Fatalf("ToFile CSV with empty table failed: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if string(data) != "id\n" {
		t.Errorf("Expected only the header, got %q", data)
	}

	jsonPath := filepath.Join(tmpDir, "empty.json")
	if err := ToFile(jsonPath, JSON, table); err != nil {
		t.Fatalf("ToFile JSON with empty table failed: %v", err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	var parsed []interface{}
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed) != 0 {
		t.Errorf("Expected empty JSON array, got %q", data)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"out.csv":   CSV,
		"OUT.JSON":  JSON,
		"page.html": HTML,
		"page.htm":  HTML,
	}
	for path, want := range tests {
		got, err := FormatForPath(path)
		if err != nil || got != want {
			t.Errorf("FormatForPath(%q) = %q, %v", path, got, err)
		}
	}

	for _, path := range []string{"noext", "data.xlsx"} {
		if _, err := FormatForPath(path); err == nil {
			t.Errorf("FormatForPath(%q) should fail", path)
		}
	}
}

// Helper function to compare slices
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
