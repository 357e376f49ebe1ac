package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processed_documents (
	fingerprint     TEXT PRIMARY KEY,
	display_name    TEXT NOT NULL,
	processed_at    TEXT NOT NULL,
	pages_extracted INTEGER NOT NULL DEFAULT 0,
	pages_unmatched INTEGER NOT NULL DEFAULT 0,
	files_written   INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore keeps the history in a SQLite database, one row per document.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, display_name, processed_at, pages_extracted, pages_unmatched, files_written
		FROM processed_documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			fp, ts string
			e      Entry
		)
		if err := rows.Scan(&fp, &e.DisplayName, &ts, &e.PagesExtracted, &e.PagesUnmatched, &e.FilesWritten); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp for %s: %v", ErrCorruptHistory, fp, err)
		}
		entries[fp] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Put(ctx context.Context, fingerprint string, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_documents
			(fingerprint, display_name, processed_at, pages_extracted, pages_unmatched, files_written)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			display_name = excluded.display_name,
			processed_at = excluded.processed_at,
			pages_extracted = excluded.pages_extracted,
			pages_unmatched = excluded.pages_unmatched,
			files_written = excluded.files_written`,
		fingerprint,
		entry.DisplayName,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.PagesExtracted,
		entry.PagesUnmatched,
		entry.FilesWritten,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_documents`); err != nil {
		return fmt.Errorf("failed to clear history table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
