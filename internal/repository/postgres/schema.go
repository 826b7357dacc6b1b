package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the nodes table and its indexes if they do not exist.
// The unique index on (owner_id, parent_id, name) is what backs the
// insert-if-absent create path.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			parent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('folder', 'leaf')),
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (owner_id, parent_id, name)
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return fmt.Errorf("create nodes table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Nodes + `_owner_parent ON ` + tables.Nodes + `(owner_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Nodes + `_owner ON ` + tables.Nodes + `(owner_id)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
