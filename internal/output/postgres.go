// internal/output/postgres.go
package output

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresWriter inserts records into a PostgreSQL table, creating it
// with TEXT columns on first write.
type PostgresWriter struct {
	db        *sql.DB
	table     string
	batchSize int
	columns   []string
}

// NewPostgresWriter connects using the given DSN.
func NewPostgresWriter(dsn, table string, batchSize int) (*PostgresWriter, error) {
	if dsn == "" {
		return nil, fmt.Errorf("PostgreSQL DSN is required")
	}
	if table == "" {
		return nil, fmt.Errorf("PostgreSQL table name is required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresWriter{db: db, table: table, batchSize: batchSize}, nil
}

func (w *PostgresWriter) Write(records []map[string]interface{}) error {
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

func (w *PostgresWriter) ensureTable(records []map[string]interface{}) error {
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

func (w *PostgresWriter) insertBatch(records []map[string]interface{}) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(w.columns))
	marks := make([]string, len(w.columns))
	for i, col := range w.columns {
		quoted[i] = quoteIdent(col)
		marks[i] = fmt.Sprintf("$%d", i+1)
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

func (w *PostgresWriter) Flush() error {
	return nil
}

func (w *PostgresWriter) Close() error {
	if w.db != nil {
		err := w.db.Close()
		w.db = nil
		return err
	}
	return nil
}
