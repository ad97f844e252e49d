// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter buffers rows and writes header plus data on Flush. The
// header is the union of keys across all rows in first-seen order,
// which is only known once every record arrived.
type CSVWriter struct {
	filename string
	file     *os.File
	rows     []map[string]interface{}
}

// NewCSVWriter opens (or creates) the target file.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("CSV output requires a filename")
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{filename: filename, file: file}, nil
}

func (w *CSVWriter) Write(records []map[string]interface{}) error {
	w.rows = append(w.rows, records...)
	return nil
}

func (w *CSVWriter) Flush() error {
	cols := columnOrder(w.rows)
	cw := csv.NewWriter(w.file)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	line := make([]string, len(cols))
	for _, row := range w.rows {
		for i, col := range cols {
			line[i] = cellString(row[col])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w *CSVWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
