package repositories

import (
	"context"

	"playdrive/internal/domain/models"
)

// TraversalDepthCap bounds every ancestor and descendant walk. A well-formed
// drive never approaches this depth; the cap exists to bound worst-case query
// cost on corrupt data.
const TraversalDepthCap = 99

// NodeFilter scopes FindMany queries. Zero-valued fields are not applied;
// OwnerID is always required.
type NodeFilter struct {
	OwnerID  string
	ParentID string
	Kind     models.NodeKind
	Name     string
}

// NodeStore defines data access operations for the flat node collection and
// the graph-traversal queries built over its parent references.
type NodeStore interface {
	// InsertIfAbsent atomically inserts node unless a record with the same
	// (owner_id, parent_id, name) key exists, in which case it returns a
	// *domain.NameConflictError. This is how per-folder name uniqueness is
	// enforced on create.
	InsertIfAbsent(ctx context.Context, node *models.Node) error

	// FindByID retrieves an owner's node; domain.ErrNotFound if absent.
	FindByID(ctx context.Context, ownerID, id string) (*models.Node, error)

	// FindMany retrieves all nodes matching the filter, sorted
	// case-insensitively by name.
	FindMany(ctx context.Context, filter NodeFilter) ([]models.Node, error)

	// UpdateReturningBefore atomically applies patch to the node matching
	// (id, owner) and returns the pre-mutation record, or domain.ErrNotFound
	// if nothing matched.
	UpdateReturningBefore(ctx context.Context, ownerID, id string, patch models.NodePatch) (*models.Node, error)

	// UpdateParentMany reparents every matching id owned by ownerID in one
	// scoped write and reports how many records changed.
	UpdateParentMany(ctx context.Context, ownerID string, ids []string, parentID string) (int64, error)

	// DeleteMany removes every listed id owned by ownerID and reports how
	// many records were deleted.
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)

	// Ancestors walks parent references upward from id, following only
	// folder-kind nodes, until the root alias or the depth cap. Ordered
	// nearest-first. Used for breadcrumbs, never for cycle checks.
	Ancestors(ctx context.Context, ownerID, id string) ([]models.FamilyMember, error)

	// Descendants walks downward from id through nodes of any kind and
	// returns every transitively nested node id, capped at the traversal
	// depth. The cycle-detection primitive: a reparent forms a loop iff the
	// destination is in this set.
	Descendants(ctx context.Context, ownerID, id string) (map[string]struct{}, error)

	// DescendantsWithParents is the batched variant over a seed set. It
	// returns the union of the seeds' descendant sets along with the set of
	// the seeds' own direct parent folders (the listings to refresh after a
	// batch mutation). Seeds that do not resolve contribute nothing.
	DescendantsWithParents(ctx context.Context, ownerID string, ids []string) (descendants, parents map[string]struct{}, err error)

	// DirectChildren lists each folder's immediate children, sorted
	// case-insensitively by name. The ordering is a user-facing contract.
	DirectChildren(ctx context.Context, ownerID string, folderIDs []string) (map[string][]models.Node, error)
}
