package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
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

// One row per channel. Structured sub-configs (gains, schedule, limits) are
// stored as JSON text; the hot columns used by queries stay discrete.
const schemaOutputConfigs = `
CREATE TABLE IF NOT EXISTS output_configs (
    channel INTEGER PRIMARY KEY CHECK (channel >= 0 AND channel <= 2),
    enabled BOOLEAN NOT NULL,
    name TEXT NOT NULL,
    hardware TEXT NOT NULL,
    device TEXT NOT NULL,
    sensor_id TEXT,
    mode TEXT NOT NULL,
    manual_pct REAL NOT NULL,
    target_c REAL NOT NULL,
    pid TEXT NOT NULL,
    timeprop TEXT NOT NULL,
    schedule TEXT,
    limits TEXT NOT NULL,
    fault_response TEXT NOT NULL,
    fault_cap_pct REAL NOT NULL,
    auto_resume BOOLEAN NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaSafetyState = `
CREATE TABLE IF NOT EXISTS safety_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    boot_count INTEGER NOT NULL,
    last_boot_at TIMESTAMP,
    stable_since TIMESTAMP,
    safe_mode BOOLEAN NOT NULL,
    safe_mode_reason TEXT NOT NULL,
    watchdog_enabled BOOLEAN NOT NULL,
    clean_shutdown BOOLEAN NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaControllerEvents = `
CREATE TABLE IF NOT EXISTS controller_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    channel INTEGER NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaOutputConfigs,
		schemaSafetyState,
		schemaControllerEvents,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
