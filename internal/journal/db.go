package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// schema is idempotent; the journal is append-only and never rebuilt.
const schema = `
CREATE TABLE IF NOT EXISTS edits (
	id TEXT PRIMARY KEY,
	site_id TEXT NOT NULL,
	command TEXT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	ops_total INTEGER NOT NULL DEFAULT 0,
	ops_applied INTEGER NOT NULL DEFAULT 0,
	ops_skipped INTEGER NOT NULL DEFAULT 0,
	ops_failed INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS edits_site_created ON edits(site_id, created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS edits_fts USING fts5(
	command,
	content='edits',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS edits_ai AFTER INSERT ON edits BEGIN
	INSERT INTO edits_fts(rowid, command) VALUES (new.rowid, new.command);
END;

CREATE TRIGGER IF NOT EXISTS edits_ad AFTER DELETE ON edits BEGIN
	INSERT INTO edits_fts(edits_fts, rowid, command) VALUES ('delete', old.rowid, old.command);
END;
`

func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}
