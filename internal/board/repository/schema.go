package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultNotifyChannel is the LISTEN/NOTIFY channel the change triggers use.
const DefaultNotifyChannel = "board_changes"

var baseTables = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		name        TEXT NOT NULL,
		avatar_url  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sprints (
		id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		name        TEXT NOT NULL,
		start_date  DATE,
		end_date    DATE,
		objective   TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'Planned',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS work_items (
		id            TEXT PRIMARY KEY,
		type          TEXT NOT NULL DEFAULT 'Task',
		parent_id     TEXT,
		title         TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		priority      TEXT DEFAULT 'P3',
		effort        INTEGER DEFAULT 0,
		kpi           TEXT NOT NULL DEFAULT '',
		kpi_impact    TEXT NOT NULL DEFAULT '',
		assignee_id   TEXT,
		status        TEXT DEFAULT 'New',
		board_column  TEXT DEFAULT 'New',
		sprint_id     TEXT,
		workstream_id TEXT,
		blocked       BOOLEAN NOT NULL DEFAULT false,
		block_reason  TEXT NOT NULL DEFAULT '',
		start_date    DATE,
		end_date      DATE,
		attachments   JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Columns added after the first release. Older databases pick them up when
// setup is run again.
var columnMigrations = []string{
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS cost_item TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS cost_type TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS cost_value NUMERIC(14,2)",
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS request_num TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS order_num TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE work_items ADD COLUMN IF NOT EXISTS billing_status TEXT NOT NULL DEFAULT ''",
	"CREATE INDEX IF NOT EXISTS idx_work_items_sprint ON work_items(sprint_id)",
	"CREATE INDEX IF NOT EXISTS idx_work_items_parent ON work_items(parent_id)",
	"CREATE INDEX IF NOT EXISTS idx_work_items_created ON work_items(created_at)",
	"CREATE INDEX IF NOT EXISTS idx_sprints_created ON sprints(created_at)",
}

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// notifyStatements installs a statement level trigger on each board table
// that emits the table name on channel.
func notifyStatements(channel string) []string {
	stmts := []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION board_notify() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', TG_TABLE_NAME);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, channel),
	}
	for _, table := range []string{"profiles", "sprints", "work_items"} {
		stmts = append(stmts,
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s_notify ON %s", table, table),
			fmt.Sprintf("CREATE TRIGGER %s_notify AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH STATEMENT EXECUTE FUNCTION board_notify()", table, table),
		)
	}
	return stmts
}

// EnsureSchema creates the board tables, applies column migrations and
// installs the change notification triggers. It is safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *gorm.DB, channel string, logger *zap.Logger) error {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if !channelPattern.MatchString(channel) {
		return fmt.Errorf("invalid notify channel %q", channel)
	}

	tx := db.WithContext(ctx)
	for _, stmt := range baseTables {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range columnMigrations {
		if err := tx.Exec(stmt).Error; err != nil {
			logger.Warn("Migration failed", zap.String("sql", stmt), zap.Error(err))
		}
	}
	for _, stmt := range notifyStatements(channel) {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install notify trigger: %w", err)
		}
	}
	logger.Info("Board schema ready", zap.String("channel", channel))
	return nil
}
