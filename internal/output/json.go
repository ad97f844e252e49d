// internal/output/json.go
package output

import (
	"encoding/json"
	"io"
	"os"
)

// JSONWriter accumulates records and writes one indented JSON array on
// Flush. An empty filename targets stdout.
type JSONWriter struct {
	filename string
	out      io.Writer
	file     *os.File
	records  []map[string]interface{}
}

// NewJSONWriter opens (or creates) the target file.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	w := &JSONWriter{filename: filename, out: os.Stdout}
	if filename != "" {
		file, err := os.Create(filename)
		if err != nil {
			return nil, err
		}
		w.file = file
		w.out = file
	}
	return w, nil
}

func (w *JSONWriter) Write(records []map[string]interface{}) error {
	w.records = append(w.records, records...)
	return nil
}

func (w *JSONWriter) Flush() error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if w.records == nil {
		return enc.Encode([]map[string]interface{}{})
	}
	return enc.Encode(w.records)
}

func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
