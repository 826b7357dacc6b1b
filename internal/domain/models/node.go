package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"playdrive/internal/domain"
)

// RootFolderAlias is the reserved parent reference carried by every root
// folder, and the id clients may use to address their own root.
const RootFolderAlias = "root"

// MaxNodeNameLength caps node names at the application level.
const MaxNodeNameLength = 255

// NodeKind discriminates folder nodes from leaf (media reference) nodes.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindLeaf   NodeKind = "leaf"
)

// Node is a single file or folder record in the hierarchy. Records are flat:
// all ancestor/descendant relationships are computed by query against the
// parent references, never by links between in-memory node values.
type Node struct {
	ID        string        `json:"id" db:"id"`
	ParentID  string        `json:"folderId" db:"parent_id"`
	OwnerID   string        `json:"userId" db:"owner_id"`
	Name      string        `json:"name" db:"name"`
	Kind      NodeKind      `json:"kind" db:"kind"`
	Metadata  *LeafMetadata `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// LeafMetadata describes the referenced media object. It is opaque to the
// consistency engine beyond the node's name.
type LeafMetadata struct {
	PlayID         string `json:"playId"`
	DurationMillis uint64 `json:"durationMillis"`
	Width          uint16 `json:"width"`
	Height         uint16 `json:"height"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	MimeType       string `json:"mimeType"`
	SizeBytes      uint64 `json:"sizeBytes"`
}

// NodePatch is the explicit optional-field patch applied by atomic updates.
// A nil field leaves the stored value untouched.
type NodePatch struct {
	ParentID *string
	Name     *string
}

// IsZero reports whether the patch changes nothing.
func (p NodePatch) IsZero() bool {
	return p.ParentID == nil && p.Name == nil
}

// ResolveFolderID maps the root alias to the owner's root folder id.
func ResolveFolderID(ownerID, folderID string) string {
	if folderID == RootFolderAlias || folderID == "" {
		return ownerID
	}
	return folderID
}

// IsRoot reports whether id addresses the owner's root folder.
func IsRoot(ownerID, id string) bool {
	return id == ownerID || id == RootFolderAlias
}

// ValidateName enforces the non-empty name invariant shared by every node.
func ValidateName(name string) error {
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, MaxNodeNameLength),
	); err != nil {
		return fmt.Errorf("%w: name %v", domain.ErrValidation, err)
	}
	return nil
}

// NewFolder builds a folder node under the given parent, resolving the root
// alias against the owner.
func NewFolder(ownerID, name, parentID string) (*Node, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Node{
		ID:        uuid.NewString(),
		ParentID:  ResolveFolderID(ownerID, parentID),
		OwnerID:   ownerID,
		Name:      name,
		Kind:      KindFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewLeaf builds a leaf node referencing a media object. An empty name falls
// back to the metadata's play id so a leaf is never unnamed.
func NewLeaf(ownerID, name, parentID string, meta LeafMetadata) (*Node, error) {
	if name == "" {
		name = meta.PlayID
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Node{
		ID:        uuid.NewString(),
		ParentID:  ResolveFolderID(ownerID, parentID),
		OwnerID:   ownerID,
		Name:      name,
		Kind:      KindLeaf,
		Metadata:  &meta,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewRootFolder builds the per-owner root. Its id equals the owner id and its
// parent is the reserved alias, which keeps it out of every descendant walk.
func NewRootFolder(ownerID string) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:        ownerID,
		ParentID:  RootFolderAlias,
		OwnerID:   ownerID,
		Name:      RootFolderAlias,
		Kind:      KindFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
