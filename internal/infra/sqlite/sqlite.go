// Package sqlite implements the engagement document store on SQLite.
//
// The store exposes the five primitives the core depends on: fetch by
// identity, atomic numeric increment, atomic set union (INSERT OR IGNORE
// into the badge set), append-only inserts, and equality/range queries.
// All timestamps are stored as RFC 3339 UTC text.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and implements domain.Store.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the engagement database under dir and applies all
// schema migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "engage.db")
	handle, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// migrate applies the schema. Each string is a single SQL statement
// (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		// User accounts — engagement fields only. Identity and credentials
		// live with the identity provider.
		`CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'active',
			is_admin       INTEGER NOT NULL DEFAULT 0,
			points         INTEGER NOT NULL DEFAULT 0,
			monthly_points INTEGER NOT NULL DEFAULT 0,
			level          INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC)`,

		// Badge set — one row per unlocked badge, add-if-absent.
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id     TEXT NOT NULL,
			badge_id    TEXT NOT NULL,
			unlocked_at TEXT NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,

		// Immutable activity log.
		`CREATE TABLE IF NOT EXISTS activities (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			type          TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			base_points   INTEGER NOT NULL DEFAULT 0,
			bonus_points  INTEGER NOT NULL DEFAULT 0,
			bonus_message TEXT NOT NULL DEFAULT '',
			claim_date    TEXT,
			created_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_type ON activities(user_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities(user_id, created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_daily_claim
			ON activities(user_id, claim_date) WHERE claim_date IS NOT NULL`,

		// Events — read-only here; owned by the events subsystem.
		`CREATE TABLE IF NOT EXISTS events (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT 'upcoming',
			points          INTEGER NOT NULL DEFAULT 0,
			awards_disabled INTEGER NOT NULL DEFAULT 0,
			deadline        TEXT
		)`,

		// Point awards — at most one per (user, event).
		`CREATE TABLE IF NOT EXISTS point_awards (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			event_id    TEXT NOT NULL,
			operator_id TEXT NOT NULL,
			points      INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			UNIQUE (user_id, event_id)
		)`,

		// Administrative audit trail.
		`CREATE TABLE IF NOT EXISTS audit_log (
			id          TEXT PRIMARY KEY,
			operator_id TEXT NOT NULL,
			target_id   TEXT NOT NULL DEFAULT '',
			event_ids   TEXT NOT NULL DEFAULT '[]',
			authorized  INTEGER NOT NULL DEFAULT 0,
			issues      TEXT NOT NULL DEFAULT '[]',
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at DESC)`,

		// Security events, classified by severity.
		`CREATE TABLE IF NOT EXISTS security_events (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			severity    TEXT NOT NULL,
			operator_id TEXT NOT NULL DEFAULT '',
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_security_severity ON security_events(severity, created_at DESC)`,
	}
}

// ─── Time Helpers ───────────────────────────────────────────────────────────

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
