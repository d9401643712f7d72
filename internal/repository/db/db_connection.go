package db

import (
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file, ensures tables exist and seeds entity labels.
// Any error here is fatal for the process.
func InitDB(path string, labels map[string]string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// A single connection; the repository serializes access on top of it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db, labels); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

// Timestamps are TEXT in UTC so that lexicographic order is time order.
const schemaLabels = `
CREATE TABLE IF NOT EXISTS labels (
    key TEXT PRIMARY KEY,
    label TEXT NOT NULL
);
`

const schemaTemperatures = `
CREATE TABLE IF NOT EXISTS temperatures (
    key TEXT NOT NULL,
    temperature REAL NOT NULL,
    expected_temperature REAL,
    timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
`

const indexTemperatures = `
CREATE INDEX IF NOT EXISTS idx_temperatures_key_timestamp ON temperatures (key, timestamp);
`

const schemaStates = `
CREATE TABLE IF NOT EXISTS states (
    key TEXT NOT NULL,
    state INTEGER NOT NULL CHECK (state IN (0, 1)),
    timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
`

const indexStates = `
CREATE INDEX IF NOT EXISTS idx_states_key_timestamp ON states (key, timestamp);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    occurred_at TEXT NOT NULL,
    type TEXT NOT NULL,
    key TEXT,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

const upsertLabelSQL = `
INSERT INTO labels (key, label) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET label = excluded.label
`

func ensureSchema(db *sql.DB, labels map[string]string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaLabels,
		schemaTemperatures,
		indexTemperatures,
		schemaStates,
		indexStates,
		schemaEvents,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.Exec(upsertLabelSQL, k, labels[k]); err != nil {
			return fmt.Errorf("seed label %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
