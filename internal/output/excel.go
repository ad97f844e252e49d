// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const excelMaxCellLength = 32767

// ExcelWriter writes records to a single-sheet workbook on Flush.
type ExcelWriter struct {
	filename  string
	sheetName string
	rows      []map[string]interface{}
}

// NewExcelWriter prepares a workbook writer targeting filename.
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("Excel output requires a filename")
	}
	return &ExcelWriter{filename: filename, sheetName: "Results"}, nil
}

func (w *ExcelWriter) Write(records []map[string]interface{}) error {
	w.rows = append(w.rows, records...)
	return nil
}

func (w *ExcelWriter) Flush() error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(w.sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	cols := columnOrder(w.rows)
	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	if err := f.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	line := make([]interface{}, len(cols))
	for r, row := range w.rows {
		for i, col := range cols {
			cell := cellString(row[col])
			if len(cell) > excelMaxCellLength {
				cell = cell[:excelMaxCellLength]
			}
			line[i] = cell
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(w.sheetName, axis, &line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SaveAs(w.filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) Close() error {
	return nil
}
