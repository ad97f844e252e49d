// internal/output/sqlite.go
package output

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteWriter inserts records into a local SQLite database. The table
// is created on first write with TEXT columns derived from the records.
type SQLiteWriter struct {
	db        *sql.DB
	table     string
	batchSize int
	columns   []string
}

// NewSQLiteWriter opens the database file, creating its directory when
// missing.
func NewSQLiteWriter(path, table string, batchSize int) (*SQLiteWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite database path is required")
	}
	if table == "" {
		return nil, fmt.Errorf("SQLite table name is required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteWriter{db: db, table: table, batchSize: batchSize}, nil
}

func (w *SQLiteWriter) Write(records []map[string]interface{}) error {
	if len(records) == 0 {
		return nil
	}
	if err := w.ensureTable(records); err != nil {
		return err
	}
	for start := 0; start < len(records); start += w.batchSize {
		end := start + w.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := w.insertBatch(records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *SQLiteWriter) ensureTable(records []map[string]interface{}) error {
	if w.columns != nil {
		return nil
	}
	w.columns = columnOrder(records)
	if len(w.columns) == 0 {
		return fmt.Errorf("records carry no columns")
	}

	defs := make([]string, len(w.columns))
	for i, col := range w.columns {
		defs[i] = quoteIdent(col) + " TEXT"
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(w.table), strings.Join(defs, ", "))
	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.table, err)
	}
	return nil
}

func (w *SQLiteWriter) insertBatch(records []map[string]interface{}) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(w.columns))
	marks := make([]string, len(w.columns))
	for i, col := range w.columns {
		quoted[i] = quoteIdent(col)
		marks[i] = "?"
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(w.table), strings.Join(quoted, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(w.columns))
	for _, record := range records {
		for i, col := range w.columns {
			if v, ok := record[col]; ok && v != nil {
				args[i] = cellString(v)
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}
	return tx.Commit()
}

func (w *SQLiteWriter) Flush() error {
	return nil
}

func (w *SQLiteWriter) Close() error {
	if w.db != nil {
		err := w.db.Close()
		w.db = nil
		return err
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
