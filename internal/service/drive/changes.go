package drive

import (
	"context"
	"fmt"
	"sort"

	"playdrive/internal/domain"
	"playdrive/internal/domain/models"
)

// The change-set calculator. Synchronous folder listings and asynchronous
// change notifications both come out of resolveChanges, so a client that
// receives a change for a folder can re-list it and see the same children.

// resolveChanges produces the current listing of each named folder. Folder
// ids are deduplicated, the root alias is resolved, and folders that no
// longer exist are skipped rather than reported. Output is ordered by folder
// id for determinism.
func (s *driveService) resolveChanges(ctx context.Context, ownerID string, folderIDs []string) ([]models.FolderChange, error) {
	seen := make(map[string]struct{}, len(folderIDs))
	resolved := make([]string, 0, len(folderIDs))
	for _, id := range folderIDs {
		id = models.ResolveFolderID(ownerID, id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}

	listings, err := s.store.DirectChildren(ctx, ownerID, resolved)
	if err != nil {
		return nil, domain.Internal("resolve changes", err)
	}

	folders := make([]string, 0, len(listings))
	for id := range listings {
		folders = append(folders, id)
	}
	sort.Strings(folders)

	changes := make([]models.FolderChange, 0, len(folders))
	for _, id := range folders {
		changes = append(changes, models.FolderChange{
			OwnerID:  ownerID,
			FolderID: id,
			Children: listings[id],
		})
	}

	return changes, nil
}

// ListFolder resolves one folder's current listing.
func (s *driveService) ListFolder(ctx context.Context, ownerID, folderID string) (*models.FolderChange, error) {
	changes, err := s.resolveChanges(ctx, ownerID, []string{folderID})
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	return &changes[0], nil
}

// FolderFamily resolves a folder's breadcrumb ancestors and direct children.
func (s *driveService) FolderFamily(ctx context.Context, ownerID, folderID string) (*models.FolderFamily, error) {
	resolved := models.ResolveFolderID(ownerID, folderID)

	folder, err := s.store.FindByID(ctx, ownerID, resolved)
	if err != nil {
		return nil, domain.Internal("folder family", err)
	}
	if folder.Kind != models.KindFolder {
		return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}

	ancestors, err := s.store.Ancestors(ctx, ownerID, resolved)
	if err != nil {
		return nil, domain.Internal("ancestors", err)
	}

	listing, err := s.ListFolder(ctx, ownerID, resolved)
	if err != nil {
		return nil, err
	}

	if ancestors == nil {
		ancestors = []models.FamilyMember{}
	}
	return &models.FolderFamily{
		ID:        folder.ID,
		ParentID:  folder.ParentID,
		Name:      folder.Name,
		Ancestors: ancestors,
		Children:  listing.Children,
	}, nil
}
