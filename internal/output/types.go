// internal/output/types.go
package output

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/stepwright/stepwright/internal/config"
)

// Writer persists scraped records. Writers buffer internally; callers
// must Flush before Close when they care about partial results.
type Writer interface {
	Write(records []map[string]interface{}) error
	Flush() error
	Close() error
}

// NewWriter builds the sink selected by the output configuration.
func NewWriter(cfg config.OutputConfig) (Writer, error) {
	switch cfg.Format {
	case "json", "":
		return NewJSONWriter(cfg.File)
	case "csv":
		return NewCSVWriter(cfg.File)
	case "excel":
		return NewExcelWriter(cfg.File)
	case "sqlite":
		path := cfg.File
		if path == "" {
			path = cfg.DSN
		}
		return NewSQLiteWriter(path, cfg.Table, cfg.BatchSize)
	case "postgres":
		return NewPostgresWriter(cfg.DSN, cfg.Table, cfg.BatchSize)
	default:
		return nil, fmt.Errorf("unknown output format: %s", cfg.Format)
	}
}

// NormalizeRecords converts engine results into flat row maps. Results
// coming out of a foreach are arrays of item maps; those are unrolled
// into individual rows.
func NormalizeRecords(results []interface{}) []map[string]interface{} {
	var rows []map[string]interface{}
	for _, r := range results {
		switch v := r.(type) {
		case map[string]interface{}:
			rows = append(rows, v)
		case []interface{}:
			rows = append(rows, NormalizeRecords(v)...)
		default:
			rows = append(rows, map[string]interface{}{"value": v})
		}
	}
	return rows
}

// columnOrder returns every key across rows so tabular sinks get a
// stable header. Keys are sorted within each row, later rows append
// only keys not yet seen.
func columnOrder(rows []map[string]interface{}) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// cellString renders one value for a tabular sink. Nested structures
// fall back to JSON so no data is dropped.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
