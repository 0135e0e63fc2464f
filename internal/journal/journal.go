// Package journal records every edit request in an append-only SQLite log.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded edit.
type Entry struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"siteId"`
	Command    string    `json:"command"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	OpsTotal   int       `json:"opsTotal"`
	OpsApplied int       `json:"opsApplied"`
	OpsSkipped int       `json:"opsSkipped"`
	OpsFailed  int       `json:"opsFailed"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recorder abstracts the journal so the pipeline does not depend on SQLite.
type Recorder interface {
	Record(ctx context.Context, e Entry) (Entry, error)
}

type SQLiteJournal struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt
}

func Open(path string) (*SQLiteJournal, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO edits (id, site_id, command, mode, status, ops_total, ops_applied, ops_skipped, ops_failed, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &SQLiteJournal{db: db, insertStmt: stmt}, nil
}

// Record stores e, filling in ID and CreatedAt when they are zero.
func (j *SQLiteJournal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.insertStmt.ExecContext(ctx, e.ID, e.SiteID, e.Command, e.Mode, e.Status,
		e.OpsTotal, e.OpsApplied, e.OpsSkipped, e.OpsFailed, e.Error, e.DurationMS,
		e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return e, fmt.Errorf("record edit %s: %w", e.ID, err)
	}
	return e, nil
}

const selectColumns = `e.id, e.site_id, e.command, e.mode, e.status, e.ops_total, e.ops_applied, e.ops_skipped, e.ops_failed, e.error, e.duration_ms, e.created_at`

// Recent returns the newest entries of siteID, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, siteID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM edits e WHERE e.site_id = ? ORDER BY e.created_at DESC, e.rowid DESC LIMIT ?`,
		siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	return scanEntries(rows)
}

// Search returns entries of siteID whose command matches every term of
// query as a prefix, best match first.
func (j *SQLiteJournal) Search(ctx context.Context, siteID, query string, limit int) ([]Entry, error) {
	query = sanitizeQuery(query)
	if query == "" {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+selectColumns+`
		 FROM edits_fts f
		 JOIN edits e ON e.rowid = f.rowid
		 WHERE edits_fts MATCH ? AND e.site_id = ?
		 ORDER BY f.rank LIMIT ?`,
		query, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.SiteID, &e.Command, &e.Mode, &e.Status, &e.OpsTotal,
			&e.OpsApplied, &e.OpsSkipped, &e.OpsFailed, &e.Error, &e.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		e.CreatedAt = t
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.insertStmt.Close()
	return j.db.Close()
}

// sanitizeQuery turns free text into an FTS5 prefix query, dropping
// operators and punctuation.
func sanitizeQuery(q string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(q) {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var terms []string
	for _, t := range strings.Fields(b.String()) {
		switch strings.ToUpper(t) {
		case "AND", "OR", "NOT", "NEAR":
			continue
		}
		terms = append(terms, `"`+t+`"*`)
	}
	return strings.Join(terms, " ")
}
