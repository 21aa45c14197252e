package db

import (
	"database/sql"
)

// MigrateUp creates the summary history schema. Every statement is idempotent.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS summaries (
    id           BIGSERIAL PRIMARY KEY,
    summary      TEXT NOT NULL,
    content_type VARCHAR(20) NOT NULL,
    style        VARCHAR(20) NOT NULL,
    metadata     JSONB NOT NULL,
    analysis     JSONB,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_content_type ON summaries(content_type)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown drops the summary history schema and all stored summaries.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_summaries_content_type`,
		`DROP INDEX IF EXISTS idx_summaries_created_at`,
		`DROP TABLE IF EXISTS summaries`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
