package store

import (
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps every collection as one JSON document per row.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and migrates) the database at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		subject TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		data TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (subject, name)
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Ensure inserts an empty row for every missing collection.
func (b *SQLiteBackend) Ensure(subject string, names []string) error {
	for _, name := range names {
		_, err := b.db.Exec(
			`INSERT INTO collections (subject, name, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(subject, name) DO NOTHING`,
			subject, name, string(emptyCollection), time.Now(),
		)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", name, err)
		}
	}
	return nil
}

// Load returns the stored document for a collection.
func (b *SQLiteBackend) Load(subject, name string) ([]byte, error) {
	var data string
	err := b.db.QueryRow(
		`SELECT data FROM collections WHERE subject = ? AND name = ?`, subject, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection %s/%s: %w", subject, name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Flush upserts the document for a collection.
func (b *SQLiteBackend) Flush(subject, name string, data []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO collections (subject, name, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(subject, name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		subject, name, string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Subjects returns the distinct non-default, non-hidden subjects in order.
func (b *SQLiteBackend) Subjects() ([]string, error) {
	rows, err := b.db.Query(
		`SELECT DISTINCT subject FROM collections
		 WHERE subject != '' AND subject NOT LIKE '.%' ORDER BY subject`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subjects := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
