package adapter

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
	_ "modernc.org/sqlite"
)

// selectEntryFields contains the field list for SELECT queries, in scan order.
const selectEntryFields = `entry_type, identifier, authors_json,
	title, publisher, journal, volume, issue, pages,
	month, year, keyword, url, doi`

// SQLite is a bibliography adapter backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ bibliography.Adapter = (*SQLite)(nil)

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (a *SQLite) Close() error {
	return a.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			position INTEGER NOT NULL,
			identifier TEXT PRIMARY KEY,
			entry_type TEXT NOT NULL,
			authors_json TEXT,
			title TEXT,
			publisher TEXT,
			journal TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			month INTEGER,
			year INTEGER,
			keyword TEXT,
			url TEXT,
			doi TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_position ON entries(position);
	`

	_, err := db.Exec(schema)
	return err
}

// Entries returns all stored entries in saved order.
func (a *SQLite) Entries() ([]*entry.Entry, error) {
	rows, err := a.db.Query(`SELECT ` + selectEntryFields + ` FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []*entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// ParseEntry accepts a JSON object or BibTeX text, as JSONL does.
func (a *SQLite) ParseEntry(text string) (*entry.Entry, error) {
	return (&JSONL{}).ParseEntry(text)
}

// SaveEntries replaces the table contents with entries in a single transaction.
func (a *SQLite) SaveEntries(entries []*entry.Entry) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (
			position, entry_type, identifier, authors_json,
			title, publisher, journal, volume, issue, pages,
			month, year, keyword, url, doi
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entries insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var authorsJSON any
		if e.Author != nil {
			data, err := json.Marshal(e.Author)
			if err != nil {
				return fmt.Errorf("encoding authors of %s: %w", e.Identifier, err)
			}
			authorsJSON = string(data)
		}

		_, err := stmt.Exec(
			i, e.Type, e.Identifier, authorsJSON,
			e.Title, e.Publisher, e.Journal, e.Volume, e.Issue, e.Pages,
			e.Month, e.Year, e.Keyword, e.URL, e.DOI,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				return fmt.Errorf("inserting %s: %w", e.Identifier, &bibliography.DuplicateEntryError{Identifier: e.Identifier})
			}
			return fmt.Errorf("inserting %s: %w", e.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*entry.Entry, error) {
	var (
		e           entry.Entry
		authorsJSON sql.NullString
		title       sql.NullString
		publisher   sql.NullString
		journal     sql.NullString
		volume      sql.NullString
		issue       sql.NullString
		pages       sql.NullString
		month       sql.NullInt64
		year        sql.NullInt64
		keyword     sql.NullString
		url         sql.NullString
		doi         sql.NullString
	)

	err := row.Scan(
		&e.Type, &e.Identifier, &authorsJSON,
		&title, &publisher, &journal, &volume, &issue, &pages,
		&month, &year, &keyword, &url, &doi,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	if authorsJSON.Valid {
		if err := json.Unmarshal([]byte(authorsJSON.String), &e.Author); err != nil {
			return nil, fmt.Errorf("%w: authors of %s: %w", bibliography.ErrParsing, e.Identifier, err)
		}
		if e.Author == nil {
			e.Author = []string{}
		}
	}

	e.Title = nullString(title)
	e.Publisher = nullString(publisher)
	e.Journal = nullString(journal)
	e.Volume = nullString(volume)
	e.Issue = nullString(issue)
	e.Pages = nullString(pages)
	e.Month = nullInt(month)
	e.Year = nullInt(year)
	e.Keyword = nullString(keyword)
	e.URL = nullString(url)
	e.DOI = nullString(doi)

	return &e, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
