package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: owner-scoped listing for the "my posts" view.
	`CREATE INDEX IF NOT EXISTS idx_items_posted_by
	     ON items(posted_by, created_at)`,
	// Migration 2: the status column only ever moves open -> resolved.
	`CREATE TRIGGER IF NOT EXISTS trg_items_status_one_way
	     BEFORE UPDATE OF status ON items
	     WHEN OLD.status = 'resolved' AND NEW.status <> 'resolved'
	 BEGIN
	     SELECT RAISE(ABORT, 'status cannot leave resolved');
	 END`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
