package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteDriver is the database/sql driver name registered by modernc.org/sqlite.
const sqliteDriver = "sqlite"

// SQLiteExporter appends a report to a SQLite database. Several reports can
// share one file; rows are told apart by report_id.
type SQLiteExporter struct{}

func (SQLiteExporter) Name() string         { return "sqlite" }
func (SQLiteExporter) Extensions() []string { return []string{".db", ".sqlite", ".sqlite3"} }

// Available checks that the SQLite driver is linked in.
func (SQLiteExporter) Available() error {
	if !slices.Contains(sql.Drivers(), sqliteDriver) {
		return fmt.Errorf("%w: sqlite driver not registered", ErrUnavailable)
	}
	return nil
}

func (SQLiteExporter) Export(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(citationsSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO citations (
			report_id, generated, idx, status, doi, year, authors,
			doi_resolved, url_accessible, issues, suggestions, raw_preview
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	id := doc.ID.String()
	generated := doc.Generated.Format(time.RFC3339)
	for _, r := range doc.Results {
		row := csvRow(r)
		if _, err := stmt.Exec(id, generated, r.Index, row[1], row[2], row[3], row[4], row[5], row[6], row[7], row[8], row[9]); err != nil {
			return fmt.Errorf("inserting citation %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing report: %w", err)
	}
	return nil
}

const citationsSchema = `
	CREATE TABLE IF NOT EXISTS citations (
		report_id TEXT NOT NULL,
		generated TEXT NOT NULL,
		idx INTEGER NOT NULL,
		status TEXT NOT NULL,
		doi TEXT,
		year TEXT,
		authors TEXT,
		doi_resolved TEXT NOT NULL,
		url_accessible TEXT NOT NULL,
		issues TEXT,
		suggestions TEXT,
		raw_preview TEXT,
		PRIMARY KEY (report_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_citations_status ON citations(status);
`
