package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Migration struct {
	Version int
	UpSQL   string
	DownSQL string
}

var migrations = []Migration{
	{
		Version: 1,
		UpSQL: `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	report_id TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	content_sha256 TEXT NOT NULL CHECK(length(content_sha256) = 64),
	filter_key TEXT NOT NULL,
	success INTEGER NOT NULL CHECK(success IN (0, 1)),
	error_message TEXT,
	map_name TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	player_count INTEGER NOT NULL DEFAULT 0,
	matchhistory_id TEXT,
	payload BLOB NOT NULL,
	payload_bytes INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(content_sha256, filter_key)
);

CREATE TABLE IF NOT EXISTS report_players (
	report_id TEXT NOT NULL,
	player_id INTEGER NOT NULL,
	player_name TEXT NOT NULL,
	team_id INTEGER NOT NULL,
	faction TEXT,
	is_human INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(report_id, player_id),
	FOREIGN KEY(report_id) REFERENCES reports(report_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS report_command_counts (
	report_id TEXT NOT NULL,
	player_id INTEGER NOT NULL,
	command_type TEXT NOT NULL CHECK(command_type IN ('build_squad','construct_entity','build_global_upgrade','use_ability','use_battlegroup_ability','select_battlegroup','select_battlegroup_ability','cancel_construction','cancel_production','ai_takeover','unknown')),
	total INTEGER NOT NULL,
	filtered INTEGER NOT NULL,
	PRIMARY KEY(report_id, player_id, command_type),
	FOREIGN KEY(report_id, player_id) REFERENCES report_players(report_id, player_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS reports_created_at
ON reports(created_at DESC);

CREATE INDEX IF NOT EXISTS reports_matchhistory_id
ON reports(matchhistory_id);
`,
		DownSQL: `
DROP INDEX IF EXISTS reports_matchhistory_id;
DROP INDEX IF EXISTS reports_created_at;
DROP TABLE IF EXISTS report_command_counts;
DROP TABLE IF EXISTS report_players;
DROP TABLE IF EXISTS reports;
DROP TABLE IF EXISTS schema_migrations;
`,
	},
	{
		Version: 2,
		UpSQL: `
ALTER TABLE reports ADD COLUMN game_version INTEGER;
ALTER TABLE reports ADD COLUMN game_type TEXT;
`,
		DownSQL: `
-- Dropping columns is not portable across SQLite builds; migration 1 drops
-- the whole table on a full rollback.
SELECT 1;
`,
	},
}

func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.Version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func RollbackAll(ctx context.Context, db *sql.DB) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin rollback tx %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("rollback migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit rollback %d: %w", m.Version, err)
		}
	}
	return nil
}
