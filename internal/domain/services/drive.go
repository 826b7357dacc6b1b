package services

import (
	"context"

	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
)

// DriveService is the hierarchical consistency engine: it orchestrates every
// tree mutation, enforces the tree invariants (no cycles, read-only root,
// per-folder name uniqueness on create), and computes the change-sets
// published after each successful mutation.
//
// Mutations return the change-sets they published so callers and tests can
// observe exactly which folder listings were affected. A failed mutation
// never publishes.
type DriveService interface {
	// CreateOne inserts a prepared node. A sibling with the same name makes
	// it fail with *domain.NameConflictError.
	CreateOne(ctx context.Context, node *models.Node) (*models.Node, []models.FolderChange, error)

	// UpdateOne renames and/or reparents one node, returning the
	// pre-mutation record. Root: domain.ErrReadOnly. Destination inside the
	// node's own subtree: domain.ErrFolderLoop. No match: domain.ErrNotFound.
	UpdateOne(ctx context.Context, ownerID, nodeID string, folderID, name *string) (*models.Node, []models.FolderChange, error)

	// MoveMany reparents a batch of nodes into folderID. Moving nothing is a
	// no-op, not an error.
	MoveMany(ctx context.Context, ownerID string, ids []string, folderID string) (int64, []models.FolderChange, error)

	// DeleteMany removes the nodes and their entire subtrees, reporting how
	// many records were deleted. Deleting nothing is a no-op, not an error.
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, []models.FolderChange, error)

	// ListFolder resolves one folder's current listing.
	ListFolder(ctx context.Context, ownerID, folderID string) (*models.FolderChange, error)

	// FolderFamily resolves a folder's breadcrumb ancestors and direct
	// children in one shot.
	FolderFamily(ctx context.Context, ownerID, folderID string) (*models.FolderFamily, error)

	// FindNodes lists an owner's nodes matching the filter.
	FindNodes(ctx context.Context, filter repositories.NodeFilter) ([]models.Node, error)

	// EnsureRoot provisions the owner's root folder if it does not exist.
	// Idempotent.
	EnsureRoot(ctx context.Context, ownerID string) error
}

// ChangePublisher receives the change-sets of successful mutations.
type ChangePublisher interface {
	Publish(change models.FolderChange)
}
