// Package sqlite is the single-file history store for local and standalone deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS premium_history (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    instrument_id   TEXT NOT NULL CHECK (length(instrument_id) BETWEEN 1 AND 32),
    display_name    TEXT NOT NULL DEFAULT '',
    record_date     TEXT NOT NULL,
    premium_rate    REAL NOT NULL DEFAULT 0,
    last_price      REAL NOT NULL DEFAULT 0,
    reference_value REAL NOT NULL DEFAULT 0,
    traded_volume   REAL NOT NULL DEFAULT 0,
    recorded_at     TEXT NOT NULL,
    UNIQUE (instrument_id, record_date)
);
CREATE INDEX IF NOT EXISTS premium_history_record_date_idx ON premium_history (record_date);
`

type DB struct{ SQL *sql.DB }

// Open creates the file (and its directory) if needed and ensures the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; readers share the same connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &DB{SQL: db}, nil
}

func (d *DB) Close() error                   { return d.SQL.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }
