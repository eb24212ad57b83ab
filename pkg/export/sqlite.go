package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"xhscrawl/pkg/storage"
)

// DatabaseName is the sqlite file every crawl is appended to
const DatabaseName = "xhscrawl.db"

// SQLiteWriter upserts rows into a table per dataset kind, keyed on id, and
// records each export in the crawls table
type SQLiteWriter struct{}

// Format implements Writer
func (SQLiteWriter) Format() string { return "sqlite" }

// Write implements Writer
func (SQLiteWriter) Write(ctx context.Context, d *Dataset, store *storage.Manager) (string, error) {
	if len(d.Columns) == 0 || d.Columns[0] != "id" {
		return "", fmt.Errorf("dataset %s has no id column", d.Name)
	}

	db, err := sql.Open("sqlite", store.Path(DatabaseName)+"?mode=rwc")
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := createTables(ctx, db, d); err != nil {
		return "", fmt.Errorf("failed to create tables: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	cols := make([]string, len(d.Columns))
	marks := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quoteIdent(d.Kind), strings.Join(cols, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, row := range d.Rows {
		args := make([]interface{}, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return "", fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crawls (name, kind, ok, message, items, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Name, d.Kind, d.OK, d.Message, d.Len(), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return DatabaseName, nil
}

func createTables(ctx context.Context, db *sql.DB, d *Dataset) error {
	defs := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	defs[0] += " PRIMARY KEY"

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		message TEXT,
		items INTEGER NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS %s (%s);`, quoteIdent(d.Kind), strings.Join(defs, ", "))

	_, err := db.ExecContext(ctx, schema)
	return err
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
