package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playdrive/internal/domain"
	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
)

// PostgresNodeStore implements the NodeStore interface over a flat nodes
// table. Hierarchy is never materialized: every ancestor/descendant
// relationship is computed by recursive query over parent references.
type PostgresNodeStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeStore creates a new node store
func NewNodeStore(config *RepositoryConfig) repositories.NodeStore {
	return &PostgresNodeStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const nodeColumns = "id, owner_id, parent_id, name, kind, metadata, created_at, updated_at"

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.Kind,
		&node.Metadata,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// InsertIfAbsent inserts node unless its (owner_id, parent_id, name) key is
// taken. The unique index is the authority; there is no separate existence
// check that could race with a concurrent create.
func (s *PostgresNodeStore) InsertIfAbsent(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, parent_id, name) DO NOTHING
	`, s.tables.Nodes, nodeColumns)

	tag, err := s.pool.Exec(ctx, query,
		node.ID,
		node.OwnerID,
		node.ParentID,
		node.Name,
		node.Kind,
		node.Metadata,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.NameConflictError{Name: node.Name, FolderID: node.ParentID}
		}
		return fmt.Errorf("insert node: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.NameConflictError{Name: node.Name, FolderID: node.ParentID}
	}

	return nil
}

// FindByID retrieves an owner's node by id
func (s *PostgresNodeStore) FindByID(ctx context.Context, ownerID, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, nodeColumns, s.tables.Nodes)

	node, err := scanNode(s.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return node, nil
}

// FindMany retrieves all nodes matching the filter, sorted case-insensitively
// by name.
func (s *PostgresNodeStore) FindMany(ctx context.Context, filter repositories.NodeFilter) ([]models.Node, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}

	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		conditions = append(conditions, fmt.Sprintf("name = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY LOWER(name) ASC
	`, nodeColumns, s.tables.Nodes, strings.Join(conditions, " AND "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}

	return collectNodes(rows)
}

// UpdateReturningBefore applies patch to the node matching (id, owner) and
// returns the record as it was before the write. The previous row is locked
// and captured in the same statement, so the before-image can never belong to
// a different write.
func (s *PostgresNodeStore) UpdateReturningBefore(ctx context.Context, ownerID, id string, patch models.NodePatch) (*models.Node, error) {
	query := fmt.Sprintf(`
		WITH prev AS (
			SELECT %s
			FROM %s
			WHERE id = $1 AND owner_id = $2
			FOR UPDATE
		)
		UPDATE %s n
		SET parent_id = COALESCE($3, n.parent_id),
		    name = COALESCE($4, n.name),
		    updated_at = NOW()
		FROM prev
		WHERE n.id = prev.id
		RETURNING prev.id, prev.owner_id, prev.parent_id, prev.name, prev.kind, prev.metadata, prev.created_at, prev.updated_at
	`, nodeColumns, s.tables.Nodes, s.tables.Nodes)

	node, err := scanNode(s.pool.QueryRow(ctx, query, id, ownerID, patch.ParentID, patch.Name))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update node: %w", err)
	}

	return node, nil
}

// UpdateParentMany reparents every matching id owned by ownerID
func (s *PostgresNodeStore) UpdateParentMany(ctx context.Context, ownerID string, ids []string, parentID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, updated_at = NOW()
		WHERE owner_id = $2 AND id = ANY($3)
	`, s.tables.Nodes)

	tag, err := s.pool.Exec(ctx, query, parentID, ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("move nodes: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteMany removes every listed id owned by ownerID
func (s *PostgresNodeStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = ANY($2)
	`, s.tables.Nodes)

	tag, err := s.pool.Exec(ctx, query, ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}

	return tag.RowsAffected(), nil
}
