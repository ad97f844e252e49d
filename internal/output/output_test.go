// internal/output/output_test.go
package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stepwright/stepwright/internal/config"
)

func TestNormalizeRecords(t *testing.T) {
	results := []interface{}{
		map[string]interface{}{"title": "a"},
		[]interface{}{
			map[string]interface{}{"title": "b"},
			map[string]interface{}{"title": "c"},
		},
		"plain string",
	}

	rows := NormalizeRecords(results)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[1]["title"] != "b" || rows[2]["title"] != "c" {
		t.Errorf("nested arrays not unrolled: %+v", rows)
	}
	if rows[3]["value"] != "plain string" {
		t.Errorf("scalar not wrapped: %+v", rows[3])
	}
}

func TestColumnOrder(t *testing.T) {
	rows := []map[string]interface{}{
		{"b": 1, "a": 2},
		{"a": 3, "c": 4},
	}
	got := columnOrder(rows)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columnOrder = %v, want %v", got, want)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{42, "42"},
		{map[string]interface{}{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := cellString(tt.in); got != tt.want {
			t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter: %v", err)
	}

	records := []map[string]interface{}{
		{"title": "one"},
		{"title": "two", "price": "9.99"},
	}
	if err := w.Write(records); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got) != 2 || got[0]["title"] != "one" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestJSONWriterEmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	var got []map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("empty output should be a JSON array, got %q", data)
	}
	if len(got) != 0 {
		t.Errorf("want empty array, got %+v", got)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	if err := w.Write([]map[string]interface{}{
		{"name": "alpha", "price": "1"},
		{"name": "beta", "link": "https://example.test"},
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	w.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows", len(lines))
	}
	if !reflect.DeepEqual(lines[0], []string{"name", "price", "link"}) {
		t.Errorf("header = %v", lines[0])
	}
	// Missing cells come back empty.
	if lines[2][1] != "" {
		t.Errorf("missing price cell = %q", lines[2][1])
	}
}

func TestCSVWriterRequiresFilename(t *testing.T) {
	if _, err := NewCSVWriter(""); err == nil {
		t.Fatal("want error for empty filename")
	}
}

func TestNewWriterSelectsFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.OutputConfig
		typ  string
	}{
		{"json", config.OutputConfig{Format: "json", File: filepath.Join(dir, "a.json")}, "*output.JSONWriter"},
		{"default json", config.OutputConfig{File: filepath.Join(dir, "b.json")}, "*output.JSONWriter"},
		{"csv", config.OutputConfig{Format: "csv", File: filepath.Join(dir, "c.csv")}, "*output.CSVWriter"},
		{"excel", config.OutputConfig{Format: "excel", File: filepath.Join(dir, "d.xlsx")}, "*output.ExcelWriter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWriter(tt.cfg)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			defer w.Close()
			if got := reflect.TypeOf(w).String(); got != tt.typ {
				t.Errorf("writer type = %s, want %s", got, tt.typ)
			}
		})
	}

	if _, err := NewWriter(config.OutputConfig{Format: "carrier-pigeon"}); err == nil {
		t.Fatal("want error for unknown format")
	}
}

func TestSQLiteWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	w, err := NewSQLiteWriter(path, "records", 2)
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}

	if err := w.Write([]map[string]interface{}{
		{"title": "one", "price": "1.00"},
		{"title": "two", "price": "2.00"},
		{"title": "three"},
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var count int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM "records"`).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 3 {
		t.Errorf("rows = %d, want 3", count)
	}

	var price interface{}
	if err := w.db.QueryRow(`SELECT "price" FROM "records" WHERE "title" = 'three'`).Scan(&price); err != nil {
		t.Fatalf("reading sparse row: %v", err)
	}
	if price != nil {
		t.Errorf("missing column should be NULL, got %v", price)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
