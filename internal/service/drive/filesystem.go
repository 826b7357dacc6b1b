// Package drive implements the hierarchical consistency engine over the node
// store.
//
// Every mutation runs a pre/apply/post sequence: invariant checks through the
// graph queries, one atomic write against the store, then change-set
// resolution for the affected folders. The invariant read and the write are
// separate store operations, so a concurrent move can slip between them; the
// write itself is always owner-scoped and atomic. Closing that window needs a
// compare-and-swap write, tracked in DESIGN.md.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"playdrive/internal/domain"
	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
	"playdrive/internal/domain/services"
)

type driveService struct {
	store     repositories.NodeStore
	publisher services.ChangePublisher
	logger    *slog.Logger
}

// NewDriveService creates the consistency engine. Every change-set produced
// by a successful mutation is handed to publisher before the call returns.
func NewDriveService(
	store repositories.NodeStore,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.DriveService {
	return &driveService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOne inserts a prepared node. Name uniqueness within the parent is
// enforced by the store's insert-if-absent, not by a separate precondition
// read.
func (s *driveService) CreateOne(ctx context.Context, node *models.Node) (*models.Node, []models.FolderChange, error) {
	if err := models.ValidateName(node.Name); err != nil {
		return nil, nil, err
	}

	if err := s.store.InsertIfAbsent(ctx, node); err != nil {
		return nil, nil, domain.Internal("create node", err)
	}

	changes, err := s.resolveChanges(ctx, node.OwnerID, []string{node.ParentID})
	if err != nil {
		return nil, nil, err
	}
	s.publish(changes)

	s.logger.Info("node created",
		"id", node.ID,
		"kind", node.Kind,
		"owner_id", node.OwnerID,
		"folder_id", node.ParentID,
	)

	return node, changes, nil
}

// UpdateOne renames and/or reparents a single node and returns the record as
// it was before the write.
func (s *driveService) UpdateOne(ctx context.Context, ownerID, nodeID string, folderID, name *string) (*models.Node, []models.FolderChange, error) {
	if models.IsRoot(ownerID, nodeID) {
		return nil, nil, domain.ErrReadOnly
	}
	if folderID == nil && name == nil {
		return nil, nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	if name != nil {
		if err := models.ValidateName(*name); err != nil {
			return nil, nil, err
		}
	}

	if folderID != nil {
		resolved := models.ResolveFolderID(ownerID, *folderID)
		folderID = &resolved

		if resolved == nodeID {
			return nil, nil, domain.ErrFolderLoop
		}
		descendants, err := s.store.Descendants(ctx, ownerID, nodeID)
		if err != nil {
			return nil, nil, domain.Internal("descendants", err)
		}
		if _, loop := descendants[resolved]; loop {
			return nil, nil, domain.ErrFolderLoop
		}
	}

	before, err := s.store.UpdateReturningBefore(ctx, ownerID, nodeID, models.NodePatch{
		ParentID: folderID,
		Name:     name,
	})
	if err != nil {
		return nil, nil, domain.Internal("update node", err)
	}

	affected := []string{before.ParentID}
	if folderID != nil && *folderID != before.ParentID {
		affected = append(affected, *folderID)
	}
	changes, err := s.resolveChanges(ctx, ownerID, affected)
	if err != nil {
		return nil, nil, err
	}
	s.publish(changes)

	s.logger.Info("node updated",
		"id", nodeID,
		"owner_id", ownerID,
		"reparented", folderID != nil,
		"renamed", name != nil,
	)

	return before, changes, nil
}

// MoveMany reparents every listed node into folderID with one scoped write.
func (s *driveService) MoveMany(ctx context.Context, ownerID string, ids []string, folderID string) (int64, []models.FolderChange, error) {
	for _, id := range ids {
		if models.IsRoot(ownerID, id) {
			return 0, nil, domain.ErrReadOnly
		}
	}

	target := models.ResolveFolderID(ownerID, folderID)
	for _, id := range ids {
		if id == target {
			return 0, nil, domain.ErrFolderLoop
		}
	}

	descendants, parents, err := s.store.DescendantsWithParents(ctx, ownerID, ids)
	if err != nil {
		return 0, nil, domain.Internal("descendants with parents", err)
	}
	if _, loop := descendants[target]; loop {
		return 0, nil, domain.ErrFolderLoop
	}

	moved, err := s.store.UpdateParentMany(ctx, ownerID, ids, target)
	if err != nil {
		return 0, nil, domain.Internal("move nodes", err)
	}
	if moved == 0 {
		return 0, nil, nil
	}

	affected := setToSlice(parents)
	affected = append(affected, target)
	changes, err := s.resolveChanges(ctx, ownerID, affected)
	if err != nil {
		return 0, nil, err
	}
	s.publish(changes)

	s.logger.Info("nodes moved",
		"owner_id", ownerID,
		"moved", moved,
		"folder_id", target,
	)

	return moved, changes, nil
}

// DeleteMany removes the listed nodes together with everything transitively
// nested under them. The change-set covers only the direct parents of the
// requested ids; a nested descendant's parent is itself deleted and needs no
// refresh.
func (s *driveService) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, []models.FolderChange, error) {
	for _, id := range ids {
		if models.IsRoot(ownerID, id) {
			return 0, nil, domain.ErrReadOnly
		}
	}

	descendants, parents, err := s.store.DescendantsWithParents(ctx, ownerID, ids)
	if err != nil {
		return 0, nil, domain.Internal("descendants with parents", err)
	}

	deletionSet := make(map[string]struct{}, len(descendants)+len(ids))
	for id := range descendants {
		deletionSet[id] = struct{}{}
	}
	for _, id := range ids {
		deletionSet[id] = struct{}{}
	}

	deleted, err := s.store.DeleteMany(ctx, ownerID, setToSlice(deletionSet))
	if err != nil {
		return 0, nil, domain.Internal("delete nodes", err)
	}
	if deleted == 0 {
		return 0, nil, nil
	}

	changes, err := s.resolveChanges(ctx, ownerID, setToSlice(parents))
	if err != nil {
		return 0, nil, err
	}
	s.publish(changes)

	s.logger.Info("nodes deleted",
		"owner_id", ownerID,
		"requested", len(ids),
		"deleted", deleted,
	)

	return deleted, changes, nil
}

// FindNodes lists an owner's nodes matching the filter.
func (s *driveService) FindNodes(ctx context.Context, filter repositories.NodeFilter) ([]models.Node, error) {
	nodes, err := s.store.FindMany(ctx, filter)
	if err != nil {
		return nil, domain.Internal("find nodes", err)
	}
	return nodes, nil
}

// EnsureRoot provisions the owner's root folder. A name conflict means the
// root already exists, which is the common case.
func (s *driveService) EnsureRoot(ctx context.Context, ownerID string) error {
	err := s.store.InsertIfAbsent(ctx, models.NewRootFolder(ownerID))
	if err != nil {
		var conflict *domain.NameConflictError
		if errors.As(err, &conflict) {
			return nil
		}
		return domain.Internal("ensure root", err)
	}

	s.logger.Info("root folder provisioned", "owner_id", ownerID)
	return nil
}

func (s *driveService) publish(changes []models.FolderChange) {
	for _, change := range changes {
		s.publisher.Publish(change)
	}
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
