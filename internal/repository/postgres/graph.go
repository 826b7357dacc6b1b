package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
)

// Graph-traversal queries over the flat nodes table. All of them are
// recursive CTEs capped at repositories.TraversalDepthCap and scoped by
// owner, and all tolerate empty results.

// Ancestors walks parent references upward from id, following only
// folder-kind nodes. The walk stops on its own at the root because the root's
// parent is the reserved alias, which no node id can equal.
func (s *PostgresNodeStore) Ancestors(ctx context.Context, ownerID, id string) ([]models.FamilyMember, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE ancestors AS (
			SELECT n.id, n.parent_id, n.name, 0 AS depth
			FROM %s n
			WHERE n.owner_id = $1
			  AND n.kind = 'folder'
			  AND n.id = (SELECT parent_id FROM %s WHERE id = $2 AND owner_id = $1)
			UNION ALL
			SELECT p.id, p.parent_id, p.name, a.depth + 1
			FROM %s p
			JOIN ancestors a ON p.id = a.parent_id
			WHERE p.owner_id = $1 AND p.kind = 'folder' AND a.depth < $3
		)
		SELECT id, parent_id, name
		FROM ancestors
		ORDER BY depth ASC
	`, s.tables.Nodes, s.tables.Nodes, s.tables.Nodes)

	rows, err := s.pool.Query(ctx, query, ownerID, id, repositories.TraversalDepthCap)
	if err != nil {
		return nil, fmt.Errorf("ancestors query: %w", err)
	}
	defer rows.Close()

	var ancestors []models.FamilyMember
	for rows.Next() {
		var member models.FamilyMember
		if err := rows.Scan(&member.ID, &member.ParentID, &member.Name); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		ancestors = append(ancestors, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestors: %w", err)
	}

	return ancestors, nil
}

// Descendants collects every node transitively nested under id, any kind.
func (s *PostgresNodeStore) Descendants(ctx context.Context, ownerID, id string) (map[string]struct{}, error) {
	return s.descendantSet(ctx, ownerID, []string{id})
}

// DescendantsWithParents collects the combined descendant set of the seed ids
// together with the seeds' own direct parent folders.
func (s *PostgresNodeStore) DescendantsWithParents(ctx context.Context, ownerID string, ids []string) (map[string]struct{}, map[string]struct{}, error) {
	descendants, err := s.descendantSet(ctx, ownerID, ids)
	if err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT parent_id
		FROM %s
		WHERE owner_id = $1 AND id = ANY($2)
	`, s.tables.Nodes)

	rows, err := s.pool.Query(ctx, query, ownerID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("parents query: %w", err)
	}
	defer rows.Close()

	parents := make(map[string]struct{})
	for rows.Next() {
		var parentID string
		if err := rows.Scan(&parentID); err != nil {
			return nil, nil, fmt.Errorf("scan parent: %w", err)
		}
		parents[parentID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate parents: %w", err)
	}

	return descendants, parents, nil
}

func (s *PostgresNodeStore) descendantSet(ctx context.Context, ownerID string, ids []string) (map[string]struct{}, error) {
	// The depth cap also bounds the walk if the data ever does contain a
	// parent cycle, which would otherwise recurse forever.
	query := fmt.Sprintf(`
		WITH RECURSIVE descendants AS (
			SELECT id, 0 AS depth
			FROM %s
			WHERE owner_id = $1 AND parent_id = ANY($2)
			UNION ALL
			SELECT n.id, d.depth + 1
			FROM %s n
			JOIN descendants d ON n.parent_id = d.id
			WHERE n.owner_id = $1 AND d.depth < $3
		)
		SELECT DISTINCT id FROM descendants
	`, s.tables.Nodes, s.tables.Nodes)

	rows, err := s.pool.Query(ctx, query, ownerID, ids, repositories.TraversalDepthCap)
	if err != nil {
		return nil, fmt.Errorf("descendants query: %w", err)
	}
	defer rows.Close()

	descendants := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan descendant: %w", err)
		}
		descendants[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descendants: %w", err)
	}

	return descendants, nil
}

// DirectChildren lists each existing folder's immediate children, sorted
// case-insensitively by name. Folders that exist but are empty still get an
// entry, so callers can emit change-sets for folders that were just emptied.
func (s *PostgresNodeStore) DirectChildren(ctx context.Context, ownerID string, folderIDs []string) (map[string][]models.Node, error) {
	childColumns := make([]string, 0, 8)
	for _, col := range strings.Split(nodeColumns, ", ") {
		childColumns = append(childColumns, "c."+col)
	}

	query := fmt.Sprintf(`
		SELECT f.id, %s
		FROM %s f
		LEFT JOIN %s c ON c.owner_id = f.owner_id AND c.parent_id = f.id
		WHERE f.owner_id = $1 AND f.id = ANY($2) AND f.kind = 'folder'
		ORDER BY f.id, LOWER(c.name) ASC
	`, strings.Join(childColumns, ", "), s.tables.Nodes, s.tables.Nodes)

	rows, err := s.pool.Query(ctx, query, ownerID, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("direct children query: %w", err)
	}
	defer rows.Close()

	children := make(map[string][]models.Node)
	for rows.Next() {
		var folderID string
		var child models.Node
		var childID, childOwner, childParent, childName, childKind *string
		var createdAt, updatedAt *time.Time
		err := rows.Scan(
			&folderID,
			&childID,
			&childOwner,
			&childParent,
			&childName,
			&childKind,
			&child.Metadata,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}

		if _, ok := children[folderID]; !ok {
			children[folderID] = []models.Node{}
		}
		if childID == nil {
			// Folder exists but is empty.
			continue
		}
		child.ID = *childID
		child.OwnerID = *childOwner
		child.ParentID = *childParent
		child.Name = *childName
		child.Kind = models.NodeKind(*childKind)
		child.CreatedAt = *createdAt
		child.UpdatedAt = *updatedAt
		children[folderID] = append(children[folderID], child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	return children, nil
}
