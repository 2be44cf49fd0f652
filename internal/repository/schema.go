package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var documentTables = []string{"incidents", "machines", "suggestions", "materials", "environment_metrics"}

// statusFields names the JSON field each table's list filter most often selects on.
var statusFields = map[string]string{
	"incidents":           "status",
	"machines":            "currentStatus",
	"suggestions":         "status",
	"materials":           "status",
	"environment_metrics": "verificationStatus",
}

// EnsureSchema creates the document tables and their status indexes if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range documentTables {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id TEXT PRIMARY KEY,
				doc JSONB NOT NULL,
				version BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS ` + table + `_created_at_idx ON ` + table + ` (created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS ` + table + `_status_idx ON ` + table + ` ((doc->>'` + statusFields[table] + `'))`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to ensure table %s: %w", table, err)
			}
		}
	}
	return nil
}
